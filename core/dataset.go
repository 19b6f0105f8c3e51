package core

import "fmt"

// BinnedMatrix 是行优先（row-major）的分箱下标矩阵，Rows 个样本 × Cols 个特征。
// Data 必须恰好有 Rows*Cols 个元素：布局在进入引擎前校验一次，而不是每次调用校验。
type BinnedMatrix struct {
	Rows int
	Cols int
	Data []int64
}

// NewBinnedMatrix 从按行组织的二维切片构造连续存储的矩阵
func NewBinnedMatrix(rows [][]int64) (BinnedMatrix, error) {
	if len(rows) == 0 {
		return BinnedMatrix{}, nil
	}
	cols := len(rows[0])
	data := make([]int64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return BinnedMatrix{}, InvalidArgument(ModuleCore, "NewBinnedMatrix",
				fmt.Sprintf("row %d has %d columns, expected %d", i, len(r), cols))
		}
		data = append(data, r...)
	}
	return BinnedMatrix{Rows: len(rows), Cols: cols, Data: data}, nil
}

// At 返回第 row 行第 col 列的分箱下标
func (m BinnedMatrix) At(row, col int) int64 { return m.Data[row*m.Cols+col] }

// Validate 校验矩阵形状与特征表一致，且每个分箱下标在特征的分箱数之内
func (m BinnedMatrix) Validate(features []Feature) error {
	if m.Rows < 0 || m.Cols < 0 {
		return InvalidArgument(ModuleCore, "BinnedMatrix.Validate", "negative dimensions")
	}
	if m.Cols != len(features) {
		return InvalidArgument(ModuleCore, "BinnedMatrix.Validate",
			fmt.Sprintf("column count %d does not match feature count %d", m.Cols, len(features)))
	}
	if len(m.Data) != m.Rows*m.Cols {
		return InvalidArgument(ModuleCore, "BinnedMatrix.Validate",
			fmt.Sprintf("data length %d is not rows*cols = %d", len(m.Data), m.Rows*m.Cols))
	}
	for i, v := range m.Data {
		col := i % m.Cols
		if v < 0 || v >= int64(features[col].BinCount) {
			return InvalidArgument(ModuleCore, "BinnedMatrix.Validate",
				fmt.Sprintf("bin %d at row %d col %d outside [0,%d)", v, i/m.Cols, col, features[col].BinCount))
		}
	}
	return nil
}

// Dataset 是一份训练/验证/交互评分数据。
//
// 回归使用 Targets，分类使用 ClassTargets（类别下标）。
// Scores 是先验模型的预测（在其之上继续 boosting），每样本 ModelType.ScoreCount() 个，
// 为 nil 时视为全零。
type Dataset struct {
	X            BinnedMatrix
	Targets      []float64
	ClassTargets []int64
	Scores       []float64
}

// Len 返回样本数
func (d *Dataset) Len() int { return d.X.Rows }

// Validate 校验数据与模型类型、特征表的一致性
func (d *Dataset) Validate(mt ModelType, features []Feature) error {
	if d == nil {
		return InvalidArgument(ModuleCore, "Dataset.Validate", "dataset is nil")
	}
	if err := d.X.Validate(features); err != nil {
		return err
	}
	if mt.IsClassification() {
		if len(d.ClassTargets) != d.X.Rows {
			return InvalidArgument(ModuleCore, "Dataset.Validate",
				fmt.Sprintf("class target count %d does not match row count %d", len(d.ClassTargets), d.X.Rows))
		}
		for i, y := range d.ClassTargets {
			if y < 0 || (mt.ClassCount() > 0 && y >= int64(mt.ClassCount())) {
				return InvalidArgument(ModuleCore, "Dataset.Validate",
					fmt.Sprintf("class target %d at row %d outside [0,%d)", y, i, mt.ClassCount()))
			}
		}
	} else if len(d.Targets) != d.X.Rows {
		return InvalidArgument(ModuleCore, "Dataset.Validate",
			fmt.Sprintf("target count %d does not match row count %d", len(d.Targets), d.X.Rows))
	}
	if d.Scores != nil && len(d.Scores) != d.X.Rows*mt.ScoreCount() {
		return InvalidArgument(ModuleCore, "Dataset.Validate",
			fmt.Sprintf("score count %d is not rows*%d = %d", len(d.Scores), mt.ScoreCount(), d.X.Rows*mt.ScoreCount()))
	}
	return nil
}

// ScoresOrZeros 返回先验分数；未提供时返回 rows*ScoreCount 个零
func (d *Dataset) ScoresOrZeros(mt ModelType) []float64 {
	if d.Scores != nil {
		return d.Scores
	}
	return make([]float64, d.X.Rows*mt.ScoreCount())
}

// Subset 按行下标抽取子集（复制数据），用于划分训练/验证集
func (d *Dataset) Subset(rows []int, mt ModelType) *Dataset {
	cols := d.X.Cols
	out := &Dataset{X: BinnedMatrix{Rows: len(rows), Cols: cols, Data: make([]int64, 0, len(rows)*cols)}}
	if d.Targets != nil {
		out.Targets = make([]float64, 0, len(rows))
	}
	if d.ClassTargets != nil {
		out.ClassTargets = make([]int64, 0, len(rows))
	}
	k := mt.ScoreCount()
	if d.Scores != nil {
		out.Scores = make([]float64, 0, len(rows)*k)
	}
	for _, r := range rows {
		out.X.Data = append(out.X.Data, d.X.Data[r*cols:(r+1)*cols]...)
		if d.Targets != nil {
			out.Targets = append(out.Targets, d.Targets[r])
		}
		if d.ClassTargets != nil {
			out.ClassTargets = append(out.ClassTargets, d.ClassTargets[r])
		}
		if d.Scores != nil {
			out.Scores = append(out.Scores, d.Scores[r*k:(r+1)*k]...)
		}
	}
	return out
}
