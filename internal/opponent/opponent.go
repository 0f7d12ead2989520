// Package opponent holds the game.Provider implementations the server can play
// against: a local dictionary, an OpenAI chat model, or the model with the
// dictionary as backup.
package opponent

import (
	"fmt"

	"github.com/robalobadob/pheasant/internal/config"
	"github.com/robalobadob/pheasant/internal/game"
	"github.com/robalobadob/pheasant/internal/words"
)

// FromConfig builds the provider selected by OPPONENT, wrapped with the
// configured thinking delay.
func FromConfig(cfg config.Config, dict *words.Dictionary) (game.Provider, error) {
	var p game.Provider
	switch cfg.Opponent {
	case config.OpponentDictionary, "":
		p = NewDictionary(dict)
	case config.OpponentOpenAI, config.OpponentFallback:
		ai, err := NewOpenAI(OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			MaxRetries: 1,
		})
		if err != nil {
			return nil, err
		}
		p = ai
		if cfg.Opponent == config.OpponentFallback {
			p = Fallback(ai, NewDictionary(dict))
		}
	default:
		return nil, fmt.Errorf("opponent: unknown kind %q", cfg.Opponent)
	}
	return Delayed(p, cfg.OpponentDelay), nil
}
