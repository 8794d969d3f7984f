package artifact

import (
	"fmt"
	"os"
	"time"

	"github.com/Veraticus/gradebook/internal/common"
	"gopkg.in/yaml.v3"
)

// Card is a human readable summary written next to the artifacts.
type Card struct {
	CreatedAt     time.Time          `yaml:"created_at"`
	Importances   map[string]float64 `yaml:"importances,omitempty"`
	RunID         string             `yaml:"run_id"`
	Dataset       string             `yaml:"dataset"`
	Target        string             `yaml:"target"`
	ModelFile     string             `yaml:"model_file"`
	LabelsFile    string             `yaml:"labels_file"`
	Features      []string           `yaml:"features"`
	Classes       []string           `yaml:"classes,omitempty"`
	Task          string             `yaml:"task"`
	Accuracy      float64            `yaml:"accuracy,omitempty"`
	R2            float64            `yaml:"r2,omitempty"`
	RMSE          float64            `yaml:"rmse,omitempty"`
	TrainFraction float64            `yaml:"train_fraction"`
	Seed          int64              `yaml:"seed"`
	Trees         int                `yaml:"trees"`
	TrainRows     int                `yaml:"train_rows"`
	TestRows      int                `yaml:"test_rows"`
}

// encodeCard renders card as YAML. Save writes it next to the model.
func encodeCard(card Card) ([]byte, error) {
	data, err := yaml.Marshal(card)
	if err != nil {
		return nil, fmt.Errorf("encode model card: %w", err)
	}
	return data, nil
}

// ReadCard loads a card written by Save.
func ReadCard(path string) (*Card, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is chosen by the operator
	if err != nil {
		return nil, common.NewIOError("read model card", path, err)
	}
	var card Card
	if err := yaml.Unmarshal(data, &card); err != nil {
		return nil, common.NewDataError("decode model card", err)
	}
	return &card, nil
}
