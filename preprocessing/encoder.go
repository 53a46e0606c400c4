package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/popsynth/pkg/errors"
)

// OneHotEncoder はカテゴリカルな文字列データを0/1のバイナリベクトルに変換する
//
// DropFirst が有効な場合、各特徴量の先頭（辞書順で最小）のカテゴリは列を
// 持たず、k カテゴリの特徴量は k-1 列になる。
// 空文字列は欠損値として扱い、すべて0のブロックにエンコードする。
type OneHotEncoder struct {
	// Categories は各特徴量のカテゴリ一覧（ソート済み）
	Categories [][]string

	// CategoryToIdx は各特徴量のカテゴリ→インデックスマップ
	CategoryToIdx []map[string]int

	// NFeatures は入力特徴量数
	NFeatures int

	// NOutputs は出力特徴量数
	NOutputs int

	// DropFirst は各特徴量の先頭カテゴリを落とす
	DropFirst bool

	fixed  [][]string
	fitted bool
}

// EncoderOption configures a OneHotEncoder.
type EncoderOption func(*OneHotEncoder)

// WithDropFirst drops the first category of every feature.
func WithDropFirst() EncoderOption {
	return func(e *OneHotEncoder) {
		e.DropFirst = true
	}
}

// WithCategories fixes the categories of every feature instead of learning
// them from the data. Fit then rejects values outside these categories.
func WithCategories(categories [][]string) EncoderOption {
	return func(e *OneHotEncoder) {
		e.fixed = make([][]string, len(categories))
		for i, c := range categories {
			e.fixed[i] = append([]string(nil), c...)
		}
	}
}

// NewOneHotEncoder は新しいOneHotEncoderを作成する
//
// 使用例:
//
//	encoder := preprocessing.NewOneHotEncoder(preprocessing.WithDropFirst())
//	encoded, err := encoder.FitTransform(data)
//	names := encoder.GetFeatureNamesOut([]string{"region"})
func NewOneHotEncoder(opts ...EncoderOption) *OneHotEncoder {
	e := &OneHotEncoder{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsFitted reports whether Fit has completed.
func (e *OneHotEncoder) IsFitted() bool {
	return e.fitted
}

// Fit は訓練データからカテゴリ情報を学習する
//
// パラメータ:
//   - data: 訓練データ (n_samples × n_features の文字列スライス)
func (e *OneHotEncoder) Fit(data [][]string) (err error) {
	defer errors.Recover(&err, "OneHotEncoder.Fit")
	if len(data) == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	nFeatures := len(data[0])
	if nFeatures == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty features", errors.ErrEmptyData)
	}
	for i, row := range data {
		if len(row) != nFeatures {
			return errors.NewValueError("OneHotEncoder.Fit",
				fmt.Sprintf("row %d has %d features, expected %d", i, len(row), nFeatures))
		}
	}
	if e.fixed != nil && len(e.fixed) != nFeatures {
		return errors.NewValueError("OneHotEncoder.Fit",
			fmt.Sprintf("%d fixed category lists for %d features", len(e.fixed), nFeatures))
	}

	e.NFeatures = nFeatures
	e.Categories = make([][]string, nFeatures)
	e.CategoryToIdx = make([]map[string]int, nFeatures)

	for j := 0; j < nFeatures; j++ {
		var categories []string
		if e.fixed != nil {
			categories = append([]string(nil), e.fixed[j]...)
		} else {
			// サンプル全体からユニークなカテゴリを収集
			set := make(map[string]bool)
			for i := range data {
				if v := data[i][j]; v != "" {
					set[v] = true
				}
			}
			for c := range set {
				categories = append(categories, c)
			}
		}
		sort.Strings(categories)

		e.Categories[j] = categories
		idx := make(map[string]int, len(categories))
		for k, c := range categories {
			idx[c] = k
		}
		e.CategoryToIdx[j] = idx

		if e.fixed != nil {
			for i := range data {
				v := data[i][j]
				if _, ok := idx[v]; !ok && v != "" {
					return errors.NewUnknownCategoryError(fmt.Sprintf("feature %d", j), v)
				}
			}
		}
	}

	e.NOutputs = 0
	for j := range e.Categories {
		e.NOutputs += e.width(j)
	}
	e.fitted = true
	return nil
}

func (e *OneHotEncoder) width(j int) int {
	n := len(e.Categories[j])
	if e.DropFirst && n > 0 {
		return n - 1
	}
	return n
}

// Transform は学習済みのカテゴリ情報を使ってデータをone-hot encodingする
// 未知カテゴリは全て0になる
func (e *OneHotEncoder) Transform(data [][]string) (_ *mat.Dense, err error) {
	defer errors.Recover(&err, "OneHotEncoder.Transform")
	if !e.fitted {
		return nil, errors.NewModelError("OneHotEncoder.Transform", "encoder is not fitted", errors.ErrNotFitted)
	}
	if len(data) == 0 {
		return nil, errors.NewModelError("OneHotEncoder.Transform", "empty data", errors.ErrEmptyData)
	}
	if len(data[0]) != e.NFeatures {
		return nil, errors.NewValueError("OneHotEncoder.Transform",
			fmt.Sprintf("got %d features, expected %d", len(data[0]), e.NFeatures))
	}
	if e.NOutputs == 0 {
		return nil, errors.NewValueError("OneHotEncoder.Transform", "encoding has no output columns")
	}

	result := mat.NewDense(len(data), e.NOutputs, nil)
	for i, row := range data {
		offset := 0
		for j := 0; j < e.NFeatures; j++ {
			if k, ok := e.CategoryToIdx[j][row[j]]; ok {
				if e.DropFirst {
					k--
				}
				if k >= 0 {
					result.Set(i, offset+k, 1)
				}
			}
			offset += e.width(j)
		}
	}
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (e *OneHotEncoder) FitTransform(data [][]string) (*mat.Dense, error) {
	if err := e.Fit(data); err != nil {
		return nil, err
	}
	return e.Transform(data)
}

// GetFeatureNamesOut は変換後の特徴量の名前を返す
//
// 例:
//   - 入力特徴量名が["milieu"]、DropFirst の場合
//   - 出力: ["milieu_Urbain"]
func (e *OneHotEncoder) GetFeatureNamesOut(inputFeatures []string) []string {
	if !e.fitted {
		return nil
	}
	var out []string
	for j, categories := range e.Categories {
		name := fmt.Sprintf("x%d", j)
		if j < len(inputFeatures) {
			name = inputFeatures[j]
		}
		start := 0
		if e.DropFirst {
			start = 1
		}
		for _, c := range categories[min(start, len(categories)):] {
			out = append(out, name+"_"+c)
		}
	}
	return out
}

// OrdinalEncoder maps each feature's categories onto 0, 1, 2, ... in a
// declared order. Empty strings encode as NaN.
type OrdinalEncoder struct {
	Categories [][]string
	index      []map[string]int
}

// NewOrdinalEncoder returns an encoder for features whose categories are
// listed, in rank order, in categories.
func NewOrdinalEncoder(categories ...[]string) *OrdinalEncoder {
	e := &OrdinalEncoder{
		Categories: make([][]string, len(categories)),
		index:      make([]map[string]int, len(categories)),
	}
	for j, cats := range categories {
		e.Categories[j] = append([]string(nil), cats...)
		e.index[j] = make(map[string]int, len(cats))
		for k, c := range cats {
			e.index[j][c] = k
		}
	}
	return e
}

// Transform encodes data (n_samples × n_features).
//
// Errors:
//   - ErrUnknownCategory: if a non-empty value is not a declared category
func (e *OrdinalEncoder) Transform(data [][]string) (_ *mat.Dense, err error) {
	defer errors.Recover(&err, "OrdinalEncoder.Transform")
	if len(data) == 0 || len(e.Categories) == 0 {
		return nil, errors.NewModelError("OrdinalEncoder.Transform", "empty data", errors.ErrEmptyData)
	}
	result := mat.NewDense(len(data), len(e.Categories), nil)
	for i, row := range data {
		if len(row) != len(e.Categories) {
			return nil, errors.NewValueError("OrdinalEncoder.Transform",
				fmt.Sprintf("row %d has %d features, expected %d", i, len(row), len(e.Categories)))
		}
		for j, v := range row {
			if v == "" {
				result.Set(i, j, math.NaN())
				continue
			}
			k, ok := e.index[j][v]
			if !ok {
				return nil, errors.NewUnknownCategoryError(fmt.Sprintf("feature %d", j), v)
			}
			result.Set(i, j, float64(k))
		}
	}
	return result, nil
}
