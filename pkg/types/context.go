// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the stackscout pipeline.
// See docs/ARCHITECTURE § Pipeline Interface, § Data Structures.
package types

// ProductContext describes the product being researched. It is the input to
// a single pipeline run and is never mutated by the pipeline.
type ProductContext struct {
	// ProductName is the working name of the product.
	ProductName string `json:"productName" yaml:"product_name"`

	// Description is a free-text summary of what the product does.
	Description string `json:"description" yaml:"description"`

	// TargetAudience describes who the product is for.
	TargetAudience string `json:"targetAudience" yaml:"target_audience"`

	// CoreFeatures lists the product's headline features.
	CoreFeatures []string `json:"coreFeatures" yaml:"core_features"`

	// Answers maps clarifying-question text to the user's free-text answer.
	Answers map[string]string `json:"answers" yaml:"answers"`
}

// IsEmpty reports whether the context carries nothing worth researching.
func (c ProductContext) IsEmpty() bool {
	return c.ProductName == "" && c.Description == ""
}
