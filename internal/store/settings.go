package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/triagekit/emailtriage/internal/model"
)

// GetUserSettings reads a user's settings row, read-through for the
// Classification Engine's job_role_context/classification_rules and
// the Artifact Extractor's newsletter_interests (spec §6
// "user_settings"). Returns the zero value when no row exists yet.
func (db *DB) GetUserSettings(ctx context.Context, username string) (model.UserSettings, error) {
	var s model.UserSettings
	var jobSkills, newsletterInterests, customPromptsJSON string
	s.Username = username

	err := db.QueryRowContext(ctx, `
		SELECT job_role_context, job_skills, newsletter_interests, classification_rules,
		       custom_prompts_json, ado_area_path, ado_pat
		FROM user_settings WHERE username = ?
	`, username).Scan(&s.JobRoleContext, &jobSkills, &newsletterInterests, &s.ClassificationRules,
		&customPromptsJSON, &s.ADOAreaPath, &s.ADOPat)
	if err == sql.ErrNoRows {
		return model.UserSettings{Username: username}, nil
	}
	if err != nil {
		return model.UserSettings{}, err
	}

	s.JobSkills = splitNonEmpty(jobSkills)
	s.NewsletterInterests = splitNonEmpty(newsletterInterests)
	if customPromptsJSON != "" {
		if err := json.Unmarshal([]byte(customPromptsJSON), &s.CustomPrompts); err != nil {
			return model.UserSettings{}, fmt.Errorf("unmarshal custom_prompts_json: %w", err)
		}
	}
	return s, nil
}

// SaveUserSettings upserts a user's settings row.
func (db *DB) SaveUserSettings(ctx context.Context, s model.UserSettings) error {
	customPrompts, err := json.Marshal(s.CustomPrompts)
	if err != nil {
		return fmt.Errorf("marshal custom_prompts: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO user_settings (
			username, job_role_context, job_skills, newsletter_interests,
			classification_rules, custom_prompts_json, ado_area_path, ado_pat
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			job_role_context = excluded.job_role_context,
			job_skills = excluded.job_skills,
			newsletter_interests = excluded.newsletter_interests,
			classification_rules = excluded.classification_rules,
			custom_prompts_json = excluded.custom_prompts_json,
			ado_area_path = excluded.ado_area_path,
			ado_pat = excluded.ado_pat
	`, s.Username, s.JobRoleContext, strings.Join(s.JobSkills, ","), strings.Join(s.NewsletterInterests, ","),
		s.ClassificationRules, string(customPrompts), s.ADOAreaPath, s.ADOPat)
	return err
}

func splitNonEmpty(csv string) []string {
	if csv == "" {
		return nil
	}
	return strings.Split(csv, ",")
}
