package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/ezoic/popsynth/config"
	"github.com/ezoic/popsynth/corruption"
	"github.com/ezoic/popsynth/income"
	"github.com/ezoic/popsynth/metrics"
	"github.com/ezoic/popsynth/pkg/errors"
	"github.com/ezoic/popsynth/pkg/log"
)

// ManifestName と ManifestFormatVersion はマニフェストの識別子
const (
	ManifestName          = "popsynth"
	ManifestFormatVersion = "1.0"
)

// runNamespace は run id を導出する名前空間
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ezoic/popsynth/run"))

// ManifestSpec はマニフェストのメタデータ
type ManifestSpec struct {
	Name          string `json:"name"`           // 生成器名
	FormatVersion string `json:"format_version"` // フォーマットバージョン
}

// Diagnostics は1つのテーブルの統計と目標値との比較
type Diagnostics struct {
	Stats       metrics.PopulationStats `json:"stats"`
	Comparisons []metrics.Comparison    `json:"comparisons"`
}

// Manifest は1回の生成の記録
//
// Adjusted は補正直後（破損前）のテーブル、Shipped は出力されたテーブルの診断
type Manifest struct {
	Spec          ManifestSpec             `json:"manifest_spec"`
	RunID         string                   `json:"run_id"`
	Seed          uint64                   `json:"seed"`
	Rows          int                      `json:"rows"`
	Columns       []string                 `json:"columns"`
	Output        config.Output            `json:"output"`
	Config        config.Config            `json:"config"`
	Adjusted      Diagnostics              `json:"adjusted"`
	Shipped       Diagnostics              `json:"shipped"`
	Corrections   []income.PartitionReport `json:"corrections"`
	Corruption    *corruption.Report       `json:"corruption,omitempty"`
	IncomeSummary metrics.Summary          `json:"income_summary"`
}

// RunID は設定から決定的な run id を導出する
//
// 出力先とログレベルは生成されるデータに影響しないため除外する。
// 同じシードと同じ設定は常に同じ id になる。
func RunID(cfg config.Config) (uuid.UUID, error) {
	cfg.Output = config.Output{}
	cfg.LogLevel = ""
	data, err := json.Marshal(cfg)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "marshal config")
	}
	return uuid.NewSHA1(runNamespace, data), nil
}

// NewManifest は cfg からマニフェストの骨格を作成する
func NewManifest(cfg config.Config, rows int, columns []string) (*Manifest, error) {
	id, err := RunID(cfg)
	if err != nil {
		return nil, err
	}
	return &Manifest{
		Spec:    ManifestSpec{Name: ManifestName, FormatVersion: ManifestFormatVersion},
		RunID:   id.String(),
		Seed:    cfg.RandomSeed,
		Rows:    rows,
		Columns: columns,
		Output:  cfg.Output,
		Config:  cfg,
	}, nil
}

// EncodeManifest はマニフェストをインデント付きJSONで書き出す
//
// パラメータ:
//   - w: 出力先Writer
//   - m: マニフェスト
func EncodeManifest(w io.Writer, m *Manifest) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}
	return nil
}

// WriteManifest はマニフェストを path にアトミックに書き出す
func WriteManifest(path string, m *Manifest) error {
	if err := WriteFileAtomic(path, func(w io.Writer) error {
		return EncodeManifest(w, m)
	}); err != nil {
		return err
	}
	log.GetLoggerWithName("export").Info("Manifest written",
		log.OperationKey, log.OperationPersist,
		log.PathKey, path,
		"run_id", m.RunID,
	)
	return nil
}

// ReadManifest はReaderからマニフェストを読み込む
//
// 戻り値:
//   - *Manifest: 読み込まれたマニフェスト
//   - error: デコード失敗、または未対応のフォーマットの場合
func ReadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, errors.Wrap(err, "failed to decode manifest")
	}

	// バージョン検証
	if m.Spec.FormatVersion == "" {
		return nil, errors.NewValueError("ReadManifest", "format_version is required")
	}
	if m.Spec.FormatVersion != ManifestFormatVersion {
		return nil, errors.NewValueError("ReadManifest",
			fmt.Sprintf("unsupported format version: %s", m.Spec.FormatVersion))
	}
	if m.Spec.Name != ManifestName {
		return nil, errors.NewValueError("ReadManifest",
			fmt.Sprintf("unexpected manifest name: %q", m.Spec.Name))
	}
	return &m, nil
}

// LoadManifest はファイルからマニフェストを読み込む
//
// 使用例:
//
//	m, err := export.LoadManifest("dataset.csv.manifest.json")
//	if err != nil {
//	    return err
//	}
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer func() { _ = f.Close() }()
	return ReadManifest(f)
}
