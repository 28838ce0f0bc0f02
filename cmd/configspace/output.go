package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/hyperparameter"
	"github.com/ahrav/go-configspace/internal/domain/space"
)

// writeYAML encodes doc as a single YAML document.
func writeYAML(w io.Writer, doc any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}

// bindingNode renders values as a mapping in hyperparameter order.
// Inactive values are left out.
func bindingNode(hps []hyperparameter.Hyperparameter, values []domain.Value) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for i, v := range values {
		if v.IsInactive() {
			continue
		}
		var val yaml.Node
		if err := val.Encode(v.Interface()); err != nil {
			return nil, fmt.Errorf("encode %s: %w", hps[i].Name(), err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: hps[i].Name()},
			&val,
		)
	}
	return node, nil
}

// configurationNode renders the active values of c.
func configurationNode(c *space.Configuration) (*yaml.Node, error) {
	cs := c.Space()
	values, err := cs.ActiveValues(c.Values())
	if err != nil {
		return nil, err
	}
	return bindingNode(cs.Hyperparameters(), values)
}

// evaluationDoc is the printed form of a told evaluation.
type evaluationDoc struct {
	Configuration *yaml.Node `yaml:"configuration"`
	Measurements  *yaml.Node `yaml:"measurements"`
	Objectives    []any      `yaml:"objectives"`
	Result        string     `yaml:"result"`
}

func newEvaluationDoc(e *space.Evaluation) (evaluationDoc, error) {
	conf, err := configurationNode(e.Configuration())
	if err != nil {
		return evaluationDoc{}, err
	}
	meas, err := bindingNode(e.ObjectiveSpace().Hyperparameters(), e.Values())
	if err != nil {
		return evaluationDoc{}, err
	}
	doc := evaluationDoc{Configuration: conf, Measurements: meas, Result: e.Error().String()}
	if e.Error() != domain.Success {
		return doc, nil
	}
	objectives, err := e.ObjectiveValues()
	if err != nil {
		return evaluationDoc{}, err
	}
	for _, v := range objectives {
		doc.Objectives = append(doc.Objectives, v.Interface())
	}
	return doc, nil
}
