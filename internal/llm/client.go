// Package llm wraps the OpenAI chat-completions API behind the
// domain.Extractor interface. Extraction results are tagged values, not
// errors: a model answering "Not found" is a normal outcome.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"soulcare/internal/config"
	"soulcare/internal/metrics"
	"soulcare/internal/models"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const notFoundMarker = "not found"

type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	clinic  config.ClinicConfig
	logger  zerolog.Logger
}

func NewClient(cfg config.LLMConfig, clinic config.ClinicConfig, logger *zerolog.Logger) *Client {
	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = cfg.BaseURL
	}

	c := &Client{
		api:     openai.NewClientWithConfig(apiConfig),
		model:   cfg.Model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		clinic:  clinic,
	}
	if logger != nil {
		c.logger = logger.With().Str("component", "llm").Logger()
	}
	return c
}

// Extract asks the model to pull one field out of a free-form reply.
// found=false means the model could not identify the value; err is
// reserved for transport and API failures.
func (c *Client) Extract(ctx context.Context, text, field string) (string, bool, error) {
	prompt := fmt.Sprintf(
		"The user responded with: '%s'. Extract the %s from this response. "+
			"Return only the extracted information in a clean format, or 'Not found' if unclear. "+
			"For name, return the full name. For email, return a valid email format. "+
			"For date, return in YYYY-MM-DD format. For time, return in 'HH:MM AM/PM - HH:MM AM/PM' format.",
		text, field,
	)

	reply, err := c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
	if err != nil {
		return "", false, err
	}

	extracted := strings.TrimSpace(reply)
	if extracted == "" || strings.EqualFold(extracted, notFoundMarker) {
		return "", false, nil
	}
	return extracted, true, nil
}

// Chat produces the therapist persona's reply for a non-booking turn.
// The history is the client-held transcript; the persona prompt is
// prepended on every call.
func (c *Client) Chat(ctx context.Context, history []models.ChatMessage) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: c.personaPrompt(),
	})
	for _, msg := range history {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return c.complete(ctx, chatMessages)
}

// EmailCopy generates the confirmation subject and body. Two separate
// completions keep the subject out of the body.
func (c *Client) EmailCopy(ctx context.Context, name, date, timeSlot string) (string, string, error) {
	subjectPrompt := fmt.Sprintf(
		"Write a short, professional, and friendly email subject line confirming a therapy appointment "+
			"for %s on %s at %s. Do NOT include this subject in the body of the email.",
		name, date, timeSlot,
	)
	subject, err := c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: subjectPrompt},
	})
	if err != nil {
		return "", "", err
	}

	bodyPrompt := fmt.Sprintf(
		"Write a professional and friendly email to %s confirming their therapy appointment "+
			"on %s at %s. Do NOT include the subject line or repeat the time and date in the subject. "+
			"Don't make the email too long. Make it compact and nice. "+
			"In regards - Name:%s ; Title: Therapist Bot ; Contact Information: %s "+
			"strictly maintain the regards",
		name, date, timeSlot, c.clinic.TherapistName, c.clinic.Name,
	)
	body, err := c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: bodyPrompt},
	})
	if err != nil {
		return "", "", err
	}

	return strings.TrimSpace(subject), body, nil
}

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	metrics.ObserveLLMLatency(time.Since(start).Seconds())
	if err != nil {
		c.logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("chat completion failed")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *Client) personaPrompt() string {
	return fmt.Sprintf(
		"You are a compassionate AI therapist named %s from %s. "+
			"Your role is to provide emotional support, coping strategies, and mental health guidance. "+
			"Always acknowledge and validate emotions, offer relevant coping mechanisms and stress-relief strategies, "+
			"and keep a warm, engaging, non-judgmental tone. Every response must relate to mental health and well-being. "+
			"If a user asks something unrelated to therapy, kindly remind them that you are here solely for mental health support. "+
			"In crisis situations involving self-harm or suicidal thoughts, provide immediate emotional support first, "+
			"then gently encourage professional help. Never dismiss the user and never refuse to help. "+
			"If the user asks about booking an appointment, guide them to use phrases like 'book appointment' or 'schedule session'.",
		c.clinic.TherapistName, c.clinic.Name,
	)
}
