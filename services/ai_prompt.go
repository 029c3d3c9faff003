package services

import (
	"encoding/json"
	"strings"

	"github.com/xbirks/alergenu-sub000/allergens"
)

func allergenIDList() string {
	ids := make([]string, 0, len(allergens.Catalog))
	for _, a := range allergens.Catalog {
		ids = append(ids, a.ID)
	}
	return strings.Join(ids, ", ")
}

func BuildMenuPhotoPrompt() string {
	return `
You are a data extraction engine for restaurant menus.

Your task:
- Read the attached photo of a restaurant menu.
- Convert every dish into STRICT JSON.
- Output MUST be valid JSON.
- Output MUST contain ONLY JSON.
- NO explanations.
- NO markdown.

Rules:
- "price" is in euro cents as an integer (12,50 € -> 1250). Use 0 when unknown.
- "category" is the section heading the dish appears under, as written.
- "allergens" maps allergen ids to "yes" or "traces". Only use these ids:
  ` + allergenIDList() + `
- Leave "allergens" empty when you cannot tell.

If you cannot extract data, return this exact JSON:
{
  "dishes": []
}

Required JSON schema:
{
  "dishes": [
    {
      "name": "string",
      "description": "string",
      "price": number,
      "category": "string",
      "allergens": { "gluten": "yes" }
    }
  ]
}
`
}

func BuildAllergenPrompt(name, description string) string {
	return `
You are a food safety assistant.

Your task:
- Decide which EU allergens the dish contains ("yes") or may contain as traces ("traces").
- Output MUST be valid JSON and ONLY JSON.
- Only use these ids:
  ` + allergenIDList() + `
- Omit allergens that are not present.

Required JSON schema:
{
  "allergens": { "gluten": "yes", "milk": "traces" }
}

DISH NAME:
` + name + `

DISH DESCRIPTION:
` + description
}

func BuildTranslatePrompt(texts []string, from, to string) string {
	raw, _ := json.Marshal(texts)
	return `
You are a professional menu translator.

Your task:
- Translate every string of the input array from "` + from + `" to "` + to + `".
- Keep the same order and the same number of entries.
- Keep dish names that are proper nouns untranslated.
- Output MUST be valid JSON and ONLY JSON.

Required JSON schema:
{
  "translations": ["string"]
}

INPUT:
` + string(raw)
}
