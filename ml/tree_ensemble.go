package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// TreeEnsemble is a forest of regression trees serialized as JSON. The
// prediction is the mean of the tree outputs.
type TreeEnsemble struct {
	FeatureCount int              `json:"feature_count"`
	Trees        []RegressionTree `json:"trees"`
}

// RegressionTree 单棵回归树，节点以数组存储，0为根节点
type RegressionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// LoadTreeEnsemble 从JSON文件加载
func LoadTreeEnsemble(path string) (*TreeEnsemble, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ensemble TreeEnsemble
	if err := json.Unmarshal(payload, &ensemble); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if err := ensemble.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	return &ensemble, nil
}

// Save 写入JSON文件
func (e *TreeEnsemble) Save(path string) error {
	if err := e.validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (e *TreeEnsemble) validate() error {
	if e.FeatureCount <= 0 {
		return errors.New("feature_count must be positive")
	}
	if len(e.Trees) == 0 {
		return errors.New("no trees")
	}
	for t, tree := range e.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", t)
		}
		for n, node := range tree.Nodes {
			if node.IsLeaf {
				continue
			}
			if node.FeatureIdx < 0 || node.FeatureIdx >= e.FeatureCount {
				return fmt.Errorf("tree %d node %d: feature index %d out of range", t, n, node.FeatureIdx)
			}
			// 子节点必须在当前节点之后，保证无环
			if node.LeftChild <= n || node.LeftChild >= len(tree.Nodes) ||
				node.RightChild <= n || node.RightChild >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: invalid children", t, n)
			}
		}
	}
	return nil
}

// Predict 对每一行求各树输出的均值
func (e *TreeEnsemble) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(row) != e.FeatureCount {
			return nil, fmt.Errorf("expected %d features, got %d", e.FeatureCount, len(row))
		}
		sum := 0.0
		for i := range e.Trees {
			v, err := e.Trees[i].predict(row)
			if err != nil {
				return nil, err
			}
			sum += v
		}
		out = append(out, sum/float64(len(e.Trees)))
	}
	return out, nil
}

func (t *RegressionTree) predict(features []float64) (float64, error) {
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}
