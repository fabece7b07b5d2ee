package search

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BuildPrompt assembles the full instruction text for one turn: the verbatim
// catalog, the user request, the running selection context, standing
// preferences, and the fixed selection-policy rules. The catalog is never
// truncated or pre-filtered; semantic matching is the backend's job.
func BuildPrompt(query, preferences string, hasImage bool, limit int, records []Record, prior *Selection) (string, error) {
	catalogJSON, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize catalog: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a professional restaurant waiter and cuisine expert with perfect memory.\n\n")

	fmt.Fprintf(&b, "USER REQUEST: %q\n\n", query)

	if hasImage {
		b.WriteString("IMAGE ANALYSIS MODE:\n")
		b.WriteString("- First identify the dish or cuisine shown in the attached image.\n")
		b.WriteString("- Then search the restaurant data below for ACTUAL matching dishes.\n")
		b.WriteString("- Return matching catalog entries, never a free-text description of the image.\n\n")
	}

	b.WriteString("RESTAURANT DATA (available dishes):\n")
	b.Write(catalogJSON)
	b.WriteString("\n\n")

	if prior != nil && (len(prior.Committed) > 0 || len(prior.Pending) > 0) {
		selectionJSON, err := json.MarshalIndent(prior, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to serialize selection context: %w", err)
		}
		b.WriteString("CURRENT SELECTION CONTEXT (committed = chosen, pending = shown alternatives):\n")
		b.Write(selectionJSON)
		b.WriteString("\n\n")
	}

	if preferences != "" {
		fmt.Fprintf(&b, "STANDING USER PREFERENCES AND ALLERGIES (apply to every turn until countermanded): %q\n\n", preferences)
	}

	b.WriteString(policyInstructions)
	fmt.Fprintf(&b, "\n- Return at most %d dishes total.\n\n", limit)
	b.WriteString(outputContract)

	return b.String(), nil
}

// policyInstructions encodes the fixed selection policy, independent of the
// specific query.
const policyInstructions = `SELECTION POLICY:
1. Classify the user's intent:
   - Exploration ("I want khinkali", naming a category): return ALL catalog
     entries matching that category across restaurants, and classify the
     operation as "added". Do not pre-filter options for the user.
   - Selection ("I'll take X", committing to one of the shown alternatives):
     return only the chosen item(s); siblings from the same category are
     dropped. Classify as "filtered". Unrelated categories already selected
     stay selected.
   - Addition ("also", "add drinks"): the entire prior selection is preserved;
     return the newly requested items. Classify as "added".
   - Removal ("remove X", "I don't want X"): return the complete remaining
     selection with only the explicitly named item(s) deleted. Never remove
     anything the user did not name. Classify as "removed".
   - Replacement ("instead", "something different"): return the replacement
     options. Classify as "replaced".
   - Plain question with no change of selection: classify as "no_change".
2. Preferences and allergies, once stated, are persistent filters on every
   subsequent turn until the user countermands them.
3. Never invent dishes: every result must be copied verbatim from the
   restaurant data, with exact restaurant_id, restaurant_name, dish_name and
   dish_price. If nothing matches, return an empty results array.
4. Never return the same (restaurant_id, dish_name) pair twice.`

// outputContract pins the response to a single JSON object so the reply can
// be machine-parsed.
const outputContract = `OUTPUT FORMAT (JSON ONLY, no markdown, no commentary):
{
  "results": [
    {
      "restaurant_id": "...",
      "restaurant_name": "...",
      "dish_name": "...",
      "dish_price": 0.00
    }
  ],
  "operation_performed": "added" | "filtered" | "replaced" | "removed" | "no_change"
}`
