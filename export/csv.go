package export

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/ezoic/popsynth/core/population"
	"github.com/ezoic/popsynth/pkg/errors"
	"github.com/ezoic/popsynth/pkg/log"
	"github.com/ezoic/popsynth/preprocessing"
)

// EncodeCSV writes pop to w: a header row followed by one row per
// individual, columns in population.Columns order. Masked fields are empty.
func EncodeCSV(w io.Writer, pop *population.Population) error {
	if pop == nil {
		return errors.NewModelError("EncodeCSV", "nil population", errors.ErrEmptyData)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(population.Columns()); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i := range pop.Rows {
		if err := cw.Write(pop.Rows[i].Record()); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV atomically writes pop to path.
func WriteCSV(path string, pop *population.Population) error {
	start := time.Now()
	if err := WriteFileAtomic(path, func(w io.Writer) error {
		return EncodeCSV(w, pop)
	}); err != nil {
		return err
	}
	log.GetLoggerWithName("export").Info("Dataset written",
		log.OperationKey, log.OperationPersist,
		log.PathKey, path,
		log.SamplesKey, pop.Len(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// EncodeFeatures writes fs to w with the target as the last column.
// NaN values are written as empty cells.
func EncodeFeatures(w io.Writer, fs *preprocessing.FeatureSet) error {
	if fs == nil || fs.X == nil {
		return errors.NewModelError("EncodeFeatures", "nil feature set", errors.ErrEmptyData)
	}
	rows, cols := fs.X.Dims()
	if len(fs.Target) != rows {
		return errors.NewValueError("EncodeFeatures", "target length does not match feature rows")
	}

	cw := csv.NewWriter(w)
	header := append(append([]string(nil), fs.Names...), preprocessing.TargetName)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}
	record := make([]string, cols+1)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = formatFloat(fs.X.At(i, j))
		}
		record[cols] = formatFloat(fs.Target[i])
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFeatures atomically writes fs to path.
func WriteFeatures(path string, fs *preprocessing.FeatureSet) error {
	start := time.Now()
	if err := WriteFileAtomic(path, func(w io.Writer) error {
		return EncodeFeatures(w, fs)
	}); err != nil {
		return err
	}
	rows, _ := fs.X.Dims()
	log.GetLoggerWithName("export").Info("Features written",
		log.OperationKey, log.OperationPersist,
		log.PathKey, path,
		log.SamplesKey, rows,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
