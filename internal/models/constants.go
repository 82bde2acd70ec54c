package models

const (
	ContextSeparator = "\n---\n"

	AnswerSystemPrompt = "You are a helpful database assistant. Use the provided schema context to answer the question. If the context does not contain the answer, say so."

	AnswerPromptTemplate = `Schema context:
%s

Question: %s`
)

var (
	SQLPromptTemplate = `You are an expert Oracle SQL developer. Given the following database schema information:

%s

Generate an Oracle SQL query for the following question:
Question: %s

Consider these tables that might be relevant: %s

Requirements:
- The query must be complete and executable
- Every table alias used in SELECT must be defined in the FROM/JOIN clauses
- All JOIN conditions must be complete with both sides specified
- Do not include a semicolon at the end

Return ONLY the complete, valid SQL query, nothing else.`

	ExplainPromptTemplate = `Explain what the following SQL query does in simple terms:

Question: %s

SQL Query:
%s

Provide a clear, concise explanation understandable to a non-technical user.
Focus on what data is retrieved and any important filters or conditions.`
)
