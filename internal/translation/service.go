package translation

import (
	"context"
	"strings"
	"sync"
	"time"

	"ai-board-of-directors/backend/ai"
	"ai-board-of-directors/backend/pkg/cache"
	"ai-board-of-directors/backend/pkg/logger"
	"ai-board-of-directors/backend/pkg/observability"

	"golang.org/x/sync/errgroup"
)

// basicVietnamese is the last resort when no provider answers
var basicVietnamese = map[string]string{
	"小鸟":  "chim nhỏ",
	"朋友":  "bạn bè",
	"飞":   "bay",
	"点点头": "gật đầu",
	"学校":  "trường học",
	"老师":  "giáo viên",
	"学生":  "học sinh",
}

var languageNames = map[string]string{
	"vi": "Vietnamese",
	"en": "English",
}

// Config selects the language pair and cache lifetime
type Config struct {
	Source      string
	Target      string
	TTL         time.Duration
	Concurrency int
}

// Service translates word lists. Results are cached per word and target language.
type Service struct {
	deepl    *DeepL
	fallback ai.Translator
	cache    cache.Store
	metrics  *observability.Metrics
	cfg      Config
	log      *logger.Logger
}

// NewService wires the providers. deepl may be nil; fallback may be ai.Unavailable.
func NewService(deepl *DeepL, fallback ai.Translator, store cache.Store, metrics *observability.Metrics, cfg Config, log *logger.Logger) *Service {
	if cfg.Source == "" {
		cfg.Source = "ZH"
	}
	if cfg.Target == "" {
		cfg.Target = "VI"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if metrics == nil {
		metrics = observability.NoopMetrics()
	}
	return &Service{deepl: deepl, fallback: fallback, cache: store, metrics: metrics, cfg: cfg, log: log}
}

func (s *Service) target() string { return strings.ToLower(s.cfg.Target) }

func (s *Service) cacheKey(word string) string { return word + "_" + s.target() }

// Translate returns a translation for every requested word. It never fails: words no
// provider can translate get a placeholder.
func (s *Service) Translate(ctx context.Context, words []string) map[string]string {
	results := make(map[string]string, len(words))

	var missing []string
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}

		v, ok, err := s.cache.Get(ctx, s.cacheKey(w))
		if err != nil {
			s.log.LogError(err, "Translation cache read failed", "word", w)
		}
		s.metrics.CacheLookup(ctx, ok)
		if ok {
			results[w] = v
			continue
		}
		missing = append(missing, w)
	}
	if len(missing) == 0 {
		return results
	}

	var fresh map[string]string
	if s.deepl == nil {
		fresh = s.translateWithModel(ctx, missing)
	} else {
		fresh = s.translateWithDeepL(ctx, missing)
	}

	for w, v := range fresh {
		results[w] = v
		if err := s.cache.Set(ctx, s.cacheKey(w), v, s.cfg.TTL); err != nil {
			s.log.LogError(err, "Translation cache write failed", "word", w)
		}
	}
	return results
}

// translateWithDeepL asks DeepL for each word; a word DeepL fails on goes to the model alone
func (s *Service) translateWithDeepL(ctx context.Context, words []string) map[string]string {
	var (
		mu  sync.Mutex
		out = make(map[string]string, len(words))
	)

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, w := range words {
		w := w
		g.Go(func() error {
			text, err := s.deepl.Translate(ctx, w, s.cfg.Source, s.cfg.Target)
			var got map[string]string
			if err != nil {
				s.log.LogError(err, "DeepL translation failed, using model fallback", "word", w)
				got = s.translateWithModel(ctx, []string{w})
			} else {
				got = map[string]string{w: text}
			}

			mu.Lock()
			for k, v := range got {
				out[k] = v
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) translateWithModel(ctx context.Context, words []string) map[string]string {
	lang, ok := languageNames[s.target()]
	if !ok {
		lang = s.cfg.Target
	}

	got, err := s.fallback.TranslateWords(ctx, words, lang)
	if err != nil {
		s.log.LogError(err, "Model translation fallback failed", "count", len(words))
		return s.basic(words)
	}

	out := make(map[string]string, len(words))
	for _, w := range words {
		if v, ok := got[w]; ok && strings.TrimSpace(v) != "" {
			out[w] = v
		}
	}
	// the model may skip words; fill them from the dictionary
	for w, v := range s.basic(words) {
		if _, ok := out[w]; !ok {
			out[w] = v
		}
	}
	return out
}

func (s *Service) basic(words []string) map[string]string {
	out := make(map[string]string, len(words))
	for _, w := range words {
		if s.target() == "vi" {
			if v, ok := basicVietnamese[w]; ok {
				out[w] = v
				continue
			}
			out[w] = "[Cần dịch: " + w + "]"
			continue
		}
		out[w] = w
	}
	return out
}
