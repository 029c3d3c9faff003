package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xbirks/alergenu-sub000/allergens"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/storage"
	"github.com/xbirks/alergenu-sub000/utils"
	"gorm.io/gorm"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

type InlineImage struct {
	MimeType string
	Data     []byte
}

// Generator returns the model's JSON answer to a prompt.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, image *InlineImage) (string, error)
}

type GeminiClient struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    geminiBaseURL,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// GenerateJSON asks for a JSON response and rejects anything else.
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string, image *InlineImage) (string, error) {
	if g.APIKey == "" {
		return "", errors.New("missing GEMINI_API_KEY")
	}
	if g.Model == "" {
		return "", errors.New("missing GEMINI_MODEL")
	}

	parts := []map[string]any{{"text": prompt}}
	if image != nil {
		parts = append(parts, map[string]any{
			"inline_data": map[string]string{
				"mime_type": image.MimeType,
				"data":      base64.StdEncoding.EncodeToString(image.Data),
			},
		})
	}

	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": parts},
		},
		"generationConfig": map[string]any{
			"temperature":      0.2,
			"maxOutputTokens":  8192,
			"responseMimeType": "application/json",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.BaseURL, g.Model, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: gemini api error %d: %s", ErrUpstream, resp.StatusCode, raw)
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("%w: gemini response: %v", ErrUpstream, err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty gemini response", ErrUpstream)
	}

	output := stripCodeFence(result.Candidates[0].Content.Parts[0].Text)
	if !json.Valid([]byte(output)) {
		return "", fmt.Errorf("%w: gemini returned non-json output", ErrUpstream)
	}
	return output, nil
}

// stripCodeFence removes a ```json fence some models add despite the prompt.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

type importedDish struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       int64         `json:"price"`
	Category    string        `json:"category"`
	Allergens   allergens.Map `json:"allergens"`
}

type ImportResult struct {
	PhotoURL          string            `json:"photo_url,omitempty"`
	Imported          int               `json:"imported"`
	CreatedCategories []models.Category `json:"created_categories"`
	Review            *ReviewState      `json:"review"`
}

type AIService struct {
	db     *gorm.DB
	gen    Generator
	store  storage.ImageStore
	review *ReviewService
}

// NewAIService accepts a nil generator; every call then fails with
// ErrAIDisabled.
func NewAIService(db *gorm.DB, gen Generator, store storage.ImageStore, review *ReviewService) *AIService {
	return &AIService{db: db, gen: gen, store: store, review: review}
}

const importedCategoryName = "Importados"

// AnalyzeMenuPhoto reads dishes off a menu photo and stores them as pending
// review items.
func (s *AIService) AnalyzeMenuPhoto(ctx context.Context, restaurantID, filename string, image InlineImage) (*ImportResult, error) {
	if s.gen == nil {
		return nil, ErrAIDisabled
	}
	if !strings.HasPrefix(image.MimeType, "image/") || len(image.Data) == 0 {
		return nil, fmt.Errorf("%w: an image file is required", ErrInvalidInput)
	}

	result := &ImportResult{CreatedCategories: make([]models.Category, 0)}
	if s.store != nil {
		url, err := s.store.Save(ctx, storage.ObjectKey(restaurantID, "menu-photos", filename), image.MimeType, bytes.NewReader(image.Data))
		if err != nil {
			utils.ErrorLogger.Printf("Error storing menu photo for %s: %v", restaurantID, err)
		} else {
			result.PhotoURL = url
		}
	}

	output, err := s.gen.GenerateJSON(ctx, BuildMenuPhotoPrompt(), &image)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Dishes []importedDish `json:"dishes"`
	}
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		return nil, fmt.Errorf("%w: invalid AI JSON output", ErrUpstream)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing []models.Category
		if err := tx.Where("restaurant_id = ?", restaurantID).Find(&existing).Error; err != nil {
			return err
		}
		categoryIDs := make(map[string]string, len(existing))
		nextOrder := 0
		for _, c := range existing {
			categoryIDs[strings.ToLower(c.NameES)] = c.ID
			if c.Order >= nextOrder {
				nextOrder = c.Order + 1
			}
		}

		for i, dish := range parsed.Dishes {
			name := strings.TrimSpace(dish.Name)
			if name == "" {
				continue
			}
			catName := strings.TrimSpace(dish.Category)
			if catName == "" {
				catName = importedCategoryName
			}
			catID, ok := categoryIDs[strings.ToLower(catName)]
			if !ok {
				category := models.Category{RestaurantID: restaurantID, NameES: catName, Order: nextOrder}
				if err := tx.Create(&category).Error; err != nil {
					return err
				}
				nextOrder++
				catID = category.ID
				categoryIDs[strings.ToLower(catName)] = catID
				result.CreatedCategories = append(result.CreatedCategories, category)
			}

			price := dish.Price
			if price < 0 {
				price = 0
			}
			pending := models.ReviewPending
			item := models.MenuItem{
				RestaurantID:  restaurantID,
				CategoryID:    catID,
				NameES:        name,
				DescriptionES: strings.TrimSpace(dish.Description),
				Price:         price,
				Allergens:     dish.Allergens.Normalize(),
				Available:     true,
				ReviewStatus:  &pending,
				Order:         i,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			result.Imported++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save imported dishes: %w", err)
	}

	utils.InfoLogger.Printf("Imported %d dishes from photo for restaurant %s", result.Imported, restaurantID)
	state, err := s.review.changed(restaurantID, false)
	if err != nil {
		return nil, err
	}
	result.Review = state
	return result, nil
}

// DetectAllergens returns the model's allergen map, limited to catalog ids.
func (s *AIService) DetectAllergens(ctx context.Context, name, description string) (allergens.Map, error) {
	if s.gen == nil {
		return nil, ErrAIDisabled
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	output, err := s.gen.GenerateJSON(ctx, BuildAllergenPrompt(name, description), nil)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Allergens allergens.Map `json:"allergens"`
	}
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		return nil, fmt.Errorf("%w: invalid AI JSON output", ErrUpstream)
	}
	return parsed.Allergens.Normalize(), nil
}

// Translate returns one translation per input text, in order.
func (s *AIService) Translate(ctx context.Context, texts []string, from, to string) ([]string, error) {
	if s.gen == nil {
		return nil, ErrAIDisabled
	}
	if len(texts) == 0 {
		return []string{}, nil
	}
	if from == "" {
		from = "es"
	}
	if to == "" || to == from {
		return nil, fmt.Errorf("%w: target language must differ from source", ErrInvalidInput)
	}

	output, err := s.gen.GenerateJSON(ctx, BuildTranslatePrompt(texts, from, to), nil)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Translations []string `json:"translations"`
	}
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		return nil, fmt.Errorf("%w: invalid AI JSON output", ErrUpstream)
	}
	if len(parsed.Translations) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d translations, got %d", ErrUpstream, len(texts), len(parsed.Translations))
	}
	return parsed.Translations, nil
}
