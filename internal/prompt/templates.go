package prompt

// defaultTemplates is the closed built-in set (spec §4.A). Bodies are
// intentionally plain: they are the fallback when no custom override is
// installed, and they double as documentation of the variables each
// template expects.
func defaultTemplates() map[Name]Template {
	list := []Template{
		{
			Name: Classifier,
			Body: "Classify this email into exactly one category.\n" +
				"Subject: {subject}\nSender: {sender}\nBody:\n{body}\n" +
				"Respond with JSON: {category}.",
			RequiredVars: []string{"subject", "sender", "body"},
			OutputSchema: []string{"category"},
		},
		{
			Name: ClassifierWithExplanation,
			Body: "You triage personal email. Classify the message below into one " +
				"of the closed categories and explain your reasoning in one sentence.\n\n" +
				"Username: {username}\nJob role context: {job_role_context}\n" +
				"Classification rules: {classification_rules}\n\n" +
				"Subject: {subject}\nSender: {sender}\nRecipient: {recipient}\n" +
				"Body:\n{body}\n\n" +
				"{few_shot_examples}\n" +
				"Respond with JSON: {category, confidence, reasoning, one_line_summary}.",
			RequiredVars: []string{"subject", "sender", "recipient", "body", "job_role_context", "classification_rules", "username"},
			OptionalVars: []string{"few_shot_examples"},
			OutputSchema: []string{"category", "confidence", "reasoning", "one_line_summary"},
		},
		{
			Name: SummarizeActionItem,
			Body: "Extract the action items from this email for {username}.\n" +
				"Subject: {subject}\nSender: {sender}\nBody:\n{body}\n" +
				"Respond with JSON: {title, description, action_items, due_date}.",
			RequiredVars: []string{"subject", "sender", "body", "username"},
			OutputSchema: []string{"title", "description", "action_items", "due_date"},
		},
		{
			Name: JobListingAnalysis,
			Body: "Evaluate this job listing against the candidate's background.\n" +
				"Job role context: {job_role_context}\nSkills: {job_skills}\n" +
				"Subject: {subject}\nBody:\n{body}\n" +
				"Respond with JSON: {title, description, qualification_match}.",
			RequiredVars: []string{"subject", "body", "job_role_context", "job_skills"},
			OutputSchema: []string{"title", "description", "qualification_match"},
		},
		{
			Name: EventRelevance,
			Body: "Rate how relevant this event is to {username} on a 0 to 1 scale.\n" +
				"Job role context: {job_role_context}\n" +
				"Subject: {subject}\nBody:\n{body}\n" +
				"Respond with JSON: {title, description, relevance_score}.",
			RequiredVars: []string{"subject", "body", "username", "job_role_context"},
			OutputSchema: []string{"title", "description", "relevance_score"},
		},
		{
			Name: NewsletterSummary,
			Body: "Summarize this newsletter into key points.\n" +
				"Subject: {subject}\nBody:\n{body}\n" +
				"Respond with JSON: {title, description, key_points, links}.",
			RequiredVars: []string{"subject", "body"},
			OutputSchema: []string{"title", "description", "key_points", "links"},
		},
		{
			Name: NewsletterSummaryCustom,
			Body: "Summarize this newsletter, emphasizing the parts relevant to these " +
				"interests: {custom_interests}.\n" +
				"Subject: {subject}\nBody:\n{body}\n" +
				"Respond with JSON: {title, description, key_points, links}.",
			RequiredVars: []string{"subject", "body", "custom_interests"},
			OutputSchema: []string{"title", "description", "key_points", "links"},
		},
		{
			Name: FYISummary,
			Body: "Summarize this email in a single bullet point for {username}.\n" +
				"Subject: {subject}\nBody:\n{body}\n" +
				"Respond with JSON: {title, description}.",
			RequiredVars: []string{"subject", "body", "username"},
			OutputSchema: []string{"title", "description"},
		},
		{
			Name: ContentDeduplication,
			Body: "Determine whether these two summaries describe the same underlying " +
				"content.\nSummary A: {summary_a}\nSummary B: {summary_b}\n" +
				"Respond with JSON: {duplicate, reasoning}.",
			RequiredVars: []string{"summary_a", "summary_b"},
			OutputSchema: []string{"duplicate", "reasoning"},
		},
		{
			Name: HolisticInboxAnalysis,
			Body: "Given the classification and task summaries for {username}'s inbox " +
				"over the last {window_days} days, produce a holistic digest.\n" +
				"Summaries:\n{conversation_summaries}\n" +
				"Respond with JSON: {digest}.",
			RequiredVars: []string{"username", "window_days", "conversation_summaries"},
			OutputSchema: []string{"digest"},
		},
	}

	out := make(map[Name]Template, len(list))
	for _, t := range list {
		out[t.Name] = t
	}
	return out
}
