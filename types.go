package concrnt

import (
	"time"
)

const (
	ProofTypeEcrecover string = "concrnt-ecrecover-direct"
)

type Policy struct {
	URL      string  `json:"url"`
	Params   *string `json:"params,omitempty"`
	Defaults *string `json:"defaults,omitempty"`
}

type Document[T any] struct {
	// CIP-1
	Key   *string `json:"key,omitempty"`
	Value T       `json:"value"`

	Author string `json:"author"`

	ContentType *string `json:"contentType,omitempty"`
	Schema      *string `json:"schema,omitempty"`

	CreateAt time.Time `json:"createAt"`

	// CIP-5
	MemberOf *[]string `json:"memberOf,omitempty"`

	// CIP-8
	Policies *[]Policy `json:"policies,omitempty"`
}

type Proof struct {
	Type      string `json:"type"`
	Signature string `json:"signature"`
}

type SignedDocument struct {
	Document string `json:"document"`
	Proof    Proof  `json:"proof"`
}

type ConcrntEndpoint struct {
	Template string    `json:"template"`
	Method   string    `json:"method"`
	Query    *[]string `json:"query,omitempty"`
}

type WellKnownConcrnt struct {
	Version   string                     `json:"version"`
	Domain    string                     `json:"domain"`
	CSID      string                     `json:"csid"`
	Layer     string                     `json:"layer"`
	Endpoints map[string]ConcrntEndpoint `json:"endpoints"`
}

// Event is pushed to realtime subscribers whenever a record is inscribed.
type Event struct {
	Type      string    `json:"type"`
	URI       string    `json:"uri"`
	Owner     string    `json:"owner"`
	Value     any       `json:"value,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
