// Package protocol defines the HTTP API's wire contract: the request bodies
// clients send, the machine-readable error codes the server answers with, and
// the JSON Schemas the bodies are validated against. Response bodies are the
// game package's own types; only requests and errors are pinned here.
package protocol

// Version is reported by the health endpoint.
const Version = "1.0"

// Schema file names under the schemas directory.
const (
	CreateRunSchema       = "create_run.schema.json"
	SubmitDecisionsSchema = "submit_decisions.schema.json"
)

// CreateRunRequest starts a new run. All fields are optional; blanks take the
// server's configured defaults.
type CreateRunRequest struct {
	StoreName string `json:"storeName,omitempty"`
	StoreSize string `json:"storeSize,omitempty"`
	Region    string `json:"region,omitempty"`
}

// SubmitDecisionsRequest submits one round's choices. Decisions must cover
// every category exactly once; scenario responses are optional.
type SubmitDecisionsRequest struct {
	Decisions []DecisionChoice `json:"decisions"`
	Scenarios []ScenarioAnswer `json:"scenarios,omitempty"`
}

// DecisionChoice selects one option of one decision template.
type DecisionChoice struct {
	DecisionTemplateID string `json:"decisionTemplateId"`
	OptionKey          string `json:"optionKey"`
}

// ScenarioAnswer selects a response option for a management scenario.
type ScenarioAnswer struct {
	ScenarioID  string `json:"scenarioId"`
	OptionIndex int    `json:"optionIndex"`
}

// ErrorBody is the JSON shape of every non-2xx response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
