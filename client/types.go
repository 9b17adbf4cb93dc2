package client

import "encoding/json"

// Results is a SPARQL 1.1 JSON result set.
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

// Bindings returns the result rows.
func (r *Results) Bindings() []Binding {
	return r.Results.Bindings
}

// Binding maps a projected variable name to its value. Unbound variables are absent.
type Binding map[string]Term

// Term is one RDF term in a binding.
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Value returns the string value of variable name, or "" when unbound.
func (b Binding) Value(name string) string {
	return b[name].Value
}

// Property describes a Wikidata property from the catalog.
type Property struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Entity is one entity document from wbgetentities.
type Entity struct {
	ID           string                 `json:"id"`
	Missing      *string                `json:"missing,omitempty"`
	Labels       map[string]LangValue   `json:"labels"`
	Descriptions map[string]LangValue   `json:"descriptions"`
	Aliases      map[string][]LangValue `json:"aliases"`
	Claims       map[string][]Statement `json:"claims"`
}

// LangValue is a language-tagged string.
type LangValue struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

// Statement is one claim with its qualifiers.
type Statement struct {
	ID              string            `json:"id"`
	Rank            string            `json:"rank"`
	Mainsnak        Snak              `json:"mainsnak"`
	Qualifiers      map[string][]Snak `json:"qualifiers,omitempty"`
	QualifiersOrder []string          `json:"qualifiers-order,omitempty"`
}

// Snak is a property/value pair. DataValue is nil for somevalue and novalue snaks.
type Snak struct {
	SnakType  string     `json:"snaktype"`
	Property  string     `json:"property"`
	Datatype  string     `json:"datatype"`
	DataValue *DataValue `json:"datavalue,omitempty"`
}

// DataValue carries a typed value; Value is decoded according to Type.
type DataValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}
