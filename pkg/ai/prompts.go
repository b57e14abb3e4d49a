package ai

// EntityPrompt asks a chat model to behave like a token-classification
// pipeline over course material. The single %s is the text chunk.
const EntityPrompt = `
# Task Context
You are a named-entity recognizer for university course material. The text may be English or Chinese.

# Text
%s

# Rules
- Return every named concept, method, algorithm, person, organization or location mentioned in the text.
- Copy each entity exactly as it appears in the text. Do not translate, expand or normalize it.
- Use one of these labels: PER, ORG, LOC, MISC. Course concepts and methods are MISC.
- Do not invent entities that are not in the text.
- Return an empty list when the text contains no entities.

# Output Formatting
Return a JSON object with this structure:
{
  "entities": [
    {"word": "<entity text>", "entity_group": "<label>"}
  ]
}
`
