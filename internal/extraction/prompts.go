package extraction

// maxItems caps the fields and concept relationships requested from, and
// accepted from, the extraction service.
const maxItems = 5

// prompt is a fixed system instruction. Each one carries a role preamble,
// the list cap and a worked example of the JSON reply it expects.
type prompt struct {
	task   string
	system string
}

var fieldsPrompt = prompt{
	task: "fields",
	system: `You will be given the text of an article in each message.
Your task is to identify the fields of study the article belongs to.
Reply with a single JSON object and nothing else.

Provide at most 5 fields of study.

Example reply:

{
    "fieldsOfStudy": ["Computer Science", "Artificial Intelligence", "Machine Learning"]
}`,
}

var conceptsPrompt = prompt{
	task: "concepts",
	system: `You will be given the text of an article in each message.
Your task is to identify the key concepts in the article and describe how
those concepts relate to each other.
Reply with a single JSON object and nothing else.

Provide at most 5 entries in conceptRelationship.

Example reply:

{
    "conceptRelationship": [
        {
            "conceptA": "Artificial Intelligence",
            "conceptB": "Humankind",
            "relationship": "is likely to transform"
        }
    ]
}`,
}

var diagramPrompt = prompt{
	task: "diagram",
	system: `Making a concept map using Mermaid.

You will be given concepts and the relationships between them as JSON, for example:

{
    "conceptRelationship": [
        {
            "conceptA": "Artificial Intelligence",
            "conceptB": "Humankind",
            "relationship": "transforms"
        }
    ]
}

Your task is to draw a concept map in the Mermaid flowchart language. Put each
concept in a node and label each edge with the relationship between the two
concepts it connects. Use every relationship you are given, and at most 5.
Reply with a single JSON object and nothing else.

Example reply:

{
    "mermaidCode": "flowchart TD\n    A[Artificial Intelligence] -->|transforms| B(Humankind)"
}`,
}

// messages builds the two-turn conversation for p.
func (p prompt) messages(user string) []Message {
	return []Message{
		{Role: "system", Content: p.system},
		{Role: "user", Content: user},
	}
}
