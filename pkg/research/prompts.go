package research

const researcherSystemPrompt = `You are a careful business research analyst. You only state facts that are supported by your sources and you answer in the exact format that is requested.`

// initialQueriesPrompt arguments: company, location clause, current date.
const initialQueriesPrompt = `
# Task Context
You are planning the first round of web searches about the company "%s"%s.

# Background Data
The current date is %s.

# Detailed Task Description & Rules
Generate 3-5 search queries that together gather comprehensive information about the company.
The queries should help find:
1. The company's official website and social media profiles
2. Basic company information (founding date, headquarters, industry)
3. Key executives and leadership team
4. Products or services offered
5. Recent news or developments

# Output Formatting
Return only a JSON array of strings, each string being one search query.
Example: ["Acme Corp official website", "Acme Corp CEO"]
`

// followUpQueriesPrompt arguments: company, prior extraction as JSON.
const followUpQueriesPrompt = `
# Task Context
You are planning follow-up search queries about the company "%s" to fill gaps left by the first round of research.

# Background Data
Initial information:
%s

# Detailed Task Description & Rules
Generate 3-5 follow-up search queries that explore specific aspects in more detail. Consider:
1. Subsidiaries or parent companies
2. Specific products or services that were mentioned
3. Key executives and their backgrounds
4. Company history or major milestones
5. Competitors or industry position

# Output Formatting
Return only a JSON array of strings, each string being one search query.
`

// searchPrompt arguments: query.
const searchPrompt = `
# Task Context
Search the web for the following query and report what you find: "%s"

# Detailed Task Description & Rules
- Report concrete facts: names, dates, places, products, figures.
- Mention the source of each fact where possible.
- If nothing relevant is found, say so plainly.

# Output Formatting
Plain text paragraphs.
`

// extractionPrompt arguments: company, entity types, findings.
const extractionPrompt = `
# Task Context
Extract structured information about the company "%s" from search results.

# Detailed Task Description & Rules
1. Entities, each with an ID that is unique within your response (e.g. "company-1", "person-2").
   Allowed types: %s
   - Company: the main company and any subsidiaries or parent companies
   - Person: key executives, founders or other important people
   - Product: products or services offered by the company
   - Location: headquarters, offices or other important locations
   - Event: important events in the company's history
   - Other: any other relevant entities
2. Directed relationships between entities, referencing entities by ID:
   - employs: Company employs Person
   - subsidiary_of: Company is a subsidiary of another Company
   - founded_by: Company was founded by Person
   - offers: Company offers Product
   - located_in: Company is located in Location
   - competitor_of: Company is a competitor of another Company
   - other relevant relationship types in snake_case
- Only extract information that is supported by the search results.
- Deduplicate entities and relationships.

# Background Data
%s

# Output Formatting
Return a JSON object:
{
  "entities": [{"id": "...", "name": "...", "type": "...", "description": "...", "url": "...", "properties": {}}],
  "relationships": [{"source": "...", "target": "...", "type": "...", "properties": {}}]
}
`

// summaryPrompt arguments: company, graph JSON, entities JSON, source titles.
const summaryPrompt = `
# Task Context
Write a research report about the company "%s" based on a knowledge graph and extracted information.

# Background Data
Knowledge graph:
%s

Extracted entities:
%s

Sources consulted:
%s

# Detailed Task Description & Rules
1. Write a detailed summary (300-500 words) covering history, business model, products or services, leadership and market position.
2. Identify potential red flags or inconsistencies (e.g. the company no longer exists, conflicting information, suspicious patterns).
3. Organize the entities into categories such as executives, products, subsidiaries and locations.

# Output Formatting
Return a JSON object:
{
  "summary": "Detailed text summary...",
  "redFlags": ["Red flag 1", "Red flag 2"],
  "structuredEntities": {
    "executives": [{"name": "Name", "description": "Role and background", "url": "Optional URL"}],
    "products": [],
    "subsidiaries": []
  }
}
`
