package ai

import (
	"Curator/core"
	"Curator/holder"
	"Curator/lib/sl"
	"Curator/storage"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	analysisInterval       = 24 * time.Hour
	backgroundCheckFreq    = 1 * time.Hour
	minCaptionsForAnalysis = 3
	captionsPerAnalysis    = 10
)

// StyleAnalyzer infers a user's preferred description style from their
// caption history via AI
type StyleAnalyzer struct {
	conf             *core.Config
	log              *slog.Logger
	history          *holder.HistoryManager
	prefsStorage     storage.PreferencesStorage
	httpClient       *http.Client
	apiURL           string
	stopChan         chan struct{}
	wg               sync.WaitGroup
	analysisInFlight sync.Map // map[int64]bool to prevent concurrent analysis for same user
}

// NewStyleAnalyzer creates a new style analyzer
func NewStyleAnalyzer(
	conf *core.Config,
	log *slog.Logger,
	history *holder.HistoryManager,
	prefsStorage storage.PreferencesStorage,
) *StyleAnalyzer {
	return &StyleAnalyzer{
		conf:         conf,
		log:          log.With(sl.Module("style-analyzer")),
		history:      history,
		prefsStorage: prefsStorage,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		apiURL:   chatCompletionsURL,
		stopChan: make(chan struct{}),
	}
}

// StartBackgroundAnalysis starts the background analysis ticker
func (sa *StyleAnalyzer) StartBackgroundAnalysis() {
	sa.wg.Add(1)
	go func() {
		defer sa.wg.Done()
		ticker := time.NewTicker(backgroundCheckFreq)
		defer ticker.Stop()

		sa.log.Info("background analysis started", slog.Duration("interval", backgroundCheckFreq))

		for {
			select {
			case <-ticker.C:
				sa.runBackgroundAnalysis()
			case <-sa.stopChan:
				sa.log.Info("background analysis stopped")
				return
			}
		}
	}()
}

// Stop stops the background analysis and waits for all goroutines to complete
func (sa *StyleAnalyzer) Stop() {
	close(sa.stopChan)
	sa.wg.Wait()
}

func (sa *StyleAnalyzer) runBackgroundAnalysis() {
	users, err := sa.prefsStorage.GetUsersNeedingAnalysis(analysisInterval)
	if err != nil {
		sa.log.Error("getting users for analysis", sl.Err(err))
		return
	}

	if len(users) > 0 {
		sa.log.Info("users needing analysis", slog.Int("count", len(users)))
	}

	for _, userId := range users {
		sa.TriggerAnalysisAsync(userId)
	}
}

// TriggerAnalysisAsync triggers analysis for a user in a goroutine
func (sa *StyleAnalyzer) TriggerAnalysisAsync(userId int64) {
	// Prevent concurrent analysis for same user
	if _, loaded := sa.analysisInFlight.LoadOrStore(userId, true); loaded {
		return
	}

	sa.wg.Add(1)
	go func() {
		defer sa.wg.Done()
		defer sa.analysisInFlight.Delete(userId)

		if err := sa.AnalyzeUser(userId); err != nil {
			sa.log.With(sl.User(userId)).Error("analyzing user style", sl.Err(err))
		}
	}()
}

// AnalyzeUser performs the actual AI analysis of the user's captions
func (sa *StyleAnalyzer) AnalyzeUser(userId int64) error {
	captions := sa.history.Recent(userId, captionsPerAnalysis)
	if len(captions) < minCaptionsForAnalysis {
		return nil // Not enough captions to analyze
	}

	sa.log.With(sl.User(userId)).Info("starting style analysis",
		slog.Int("captions", len(captions)))

	analysisPrompt := sa.buildAnalysisPrompt(captions)

	analysis, err := sa.callOpenAI(analysisPrompt)
	if err != nil {
		return fmt.Errorf("calling OpenAI: %w", err)
	}

	prefs, err := sa.parseAnalysisResponse(userId, analysis)
	if err != nil {
		return fmt.Errorf("parsing analysis: %w", err)
	}

	if err := sa.prefsStorage.SaveStyle(prefs); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}

	sa.log.With(sl.User(userId)).Info("style analysis completed",
		slog.String("language", prefs.Language),
		slog.String("tone", prefs.Tone))

	return nil
}

func (sa *StyleAnalyzer) buildAnalysisPrompt(captions []holder.Caption) string {
	var descriptions []string
	for _, c := range captions {
		descriptions = append(descriptions, c.Description)
	}
	captionsText := strings.Join(descriptions, "\n---\n")

	return fmt.Sprintf(`The following gallery descriptions were generated for one user's images.

Descriptions:
%s

Infer the description style this user's collection calls for and provide a JSON response with the following fields:
{
  "language": "the language the descriptions are written in (e.g., English, Ukrainian, Spanish)",
  "tone": "formal, poetic, or neutral",
  "detail": "brief, balanced, or rich"
}

Respond ONLY with the JSON object, no other text.`, captionsText)
}

func (sa *StyleAnalyzer) callOpenAI(prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	request := NewRequest(prompt, sa.conf.Model)
	jsonBytes, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", sa.apiURL, strings.NewReader(string(jsonBytes)))
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", sa.conf.OpenAIApiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := sa.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			sa.log.Warn("closing body", slog.String("error", err.Error()))
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var chatCompletion ChatCompletion
	if err := json.Unmarshal(body, &chatCompletion); err != nil {
		return "", err
	}

	if chatCompletion.Error != nil && chatCompletion.Error.Message != "" {
		return "", fmt.Errorf("OpenAI error: %s", chatCompletion.Error.Message)
	}

	if len(chatCompletion.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}

	return chatCompletion.Choices[0].Message.Content, nil
}

func (sa *StyleAnalyzer) parseAnalysisResponse(userId int64, response string) (*storage.StylePreferences, error) {
	// Clean up response (remove markdown code blocks if present)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var analysis storage.StyleAnalysis
	if err := json.Unmarshal([]byte(response), &analysis); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w (response: %s)", err, response)
	}

	// Get existing preferences to preserve metadata
	existing, _ := sa.prefsStorage.GetStyle(userId)

	prefs := &storage.StylePreferences{
		UserId:         userId,
		Language:       analysis.Language,
		Tone:           analysis.Tone,
		Detail:         analysis.Detail,
		LastAnalysisAt: time.Now(),
	}

	if existing != nil {
		prefs.CreatedAt = existing.CreatedAt
		prefs.LastCaptionAt = existing.LastCaptionAt
	} else {
		prefs.CreatedAt = time.Now()
	}

	return prefs, nil
}
