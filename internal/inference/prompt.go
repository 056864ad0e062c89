package inference

import (
	"encoding/json"
	"fmt"
	"strings"

	"locheal/internal/healing"
)

const systemPrompt = `You are a web UI locator repair engine. A locator that used to match an element no longer does. Using the page evidence, produce ONE replacement locator for the same logical element.

Rules:
- Prefer stable attributes: data-testid, id, name, aria role. Avoid brittle positional or style-class selectors.
- The locator must match exactly one element in the provided page.
- strategy must be one of CSS, XPATH, TEXT, DATA_TESTID and must agree with the locator syntax.
- confidence is 0-100. Be honest; a guess from weak evidence is low confidence.
- Respond with JSON only.`

// buildUserPrompt renders the generation request into the model prompt.
func buildUserPrompt(req healing.GenerationRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Broken locator: %s\n", req.Locator)
	if req.FailureReason != "" {
		fmt.Fprintf(&b, "Failure: %s\n", req.FailureReason)
	}
	if req.Description != "" {
		fmt.Fprintf(&b, "Element description: %s\n", req.Description)
	}

	if snap := req.Snapshot; snap != nil {
		fmt.Fprintf(&b, "\nPage title: %s\nPage URL: %s\n", snap.Title, snap.URL)
		if len(snap.Elements) > 0 {
			b.WriteString("\nInteractive elements:\n")
			for _, el := range snap.Elements {
				data, err := json.Marshal(el)
				if err != nil {
					continue
				}
				b.Write(data)
				b.WriteByte('\n')
			}
		}
		if snap.HTML != "" {
			fmt.Fprintf(&b, "\nPage HTML (trimmed):\n%s\n", snap.HTML)
		}
	}

	return b.String()
}
