package models

// RequestPayload is the body of a single remote retrieval request. One
// payload covers every requested variable for a (product, experiment,
// model) combination. Field names follow the provider's request schema.
type RequestPayload struct {
	Format              string   `json:"format"`
	Variables           []string `json:"variable"`
	ProductType         string   `json:"product_type"`
	Model               string   `json:"model"`
	Experiment          string   `json:"experiment"`
	Period              string   `json:"period"`
	EnsembleMember      string   `json:"ensemble_member"`
	TemporalAggregation string   `json:"temporal_aggregation"`
	Version             string   `json:"version"`
}

// TransferTask is one unit of download work. It is created by the request
// builder and consumed by exactly one orchestrator worker; it is never
// shared after dispatch and never persisted.
type TransferTask struct {
	DatasetID    string
	Payload      RequestPayload
	StagingPath  string // archive path in the staging area
	DestDir      string // final directory the unpacked files belong in
	Endpoint     string // alternate download endpoint assigned round-robin
	CredentialID string // credential identity assigned round-robin
}
