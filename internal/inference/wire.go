package inference

// Wire types for the Gemini generateContent API. Only the fields this
// package sends or reads are modeled.

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64                `json:"temperature"`
	MaxOutputTokens  int                    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string                 `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]interface{} `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// candidatePayload is the structured completion the model is constrained
// to emit.
type candidatePayload struct {
	Locator    string  `json:"locator"`
	Strategy   string  `json:"strategy"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// candidateSchema constrains the completion to a single locator candidate.
var candidateSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"locator": map[string]interface{}{
			"type":        "string",
			"description": "The replacement locator string",
		},
		"strategy": map[string]interface{}{
			"type": "string",
			"enum": []string{"CSS", "XPATH", "TEXT", "DATA_TESTID"},
		},
		"confidence": map[string]interface{}{
			"type":        "number",
			"description": "Confidence 0-100 that the locator targets the intended element",
		},
		"rationale": map[string]interface{}{
			"type":        "string",
			"description": "One sentence explaining the choice",
		},
	},
	"required": []string{"locator", "strategy", "confidence"},
}
