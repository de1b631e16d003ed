package translation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ai-board-of-directors/backend/ai"
	"ai-board-of-directors/backend/pkg/cache"
	"ai-board-of-directors/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranslator struct {
	calls int32
	out   map[string]string
	err   error
}

func (f *fakeTranslator) TranslateWords(_ context.Context, words []string, lang string) (map[string]string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]string{}
	for _, w := range words {
		if v, ok := f.out[w]; ok {
			out[w] = v
		}
	}
	return out, nil
}

// deeplServer translates 你好 and fails every other word
func deeplServer(t *testing.T, hits *int32) *DeepL {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/v2/translate", r.URL.Path)
		assert.Equal(t, "DeepL-Auth-Key key", r.Header.Get("Authorization"))

		var req deeplRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ZH", req.SourceLang)
		assert.Equal(t, "VI", req.TargetLang)

		if req.Text[0] != "你好" {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"Too many requests"}`))
			return
		}
		_, _ = w.Write([]byte(`{"translations":[{"detected_source_language":"ZH","text":"xin chào"}]}`))
	}))
	t.Cleanup(srv.Close)
	return NewDeepL(DeepLConfig{APIKey: "key", BaseURL: srv.URL})
}

func newMemory(t *testing.T) *cache.Memory {
	m := cache.NewMemory(cache.Options{MaxItems: 100})
	t.Cleanup(m.Close)
	return m
}

func TestNewDeepLWithoutKey(t *testing.T) {
	assert.Nil(t, NewDeepL(DeepLConfig{}))
}

func TestTranslateDeepLWithFallback(t *testing.T) {
	var hits int32
	fallback := &fakeTranslator{out: map[string]string{"谢谢": "cảm ơn"}}
	store := newMemory(t)
	svc := NewService(deeplServer(t, &hits), fallback, store, nil, Config{TTL: time.Hour}, logger.Discard())

	got := svc.Translate(context.Background(), []string{"你好", "谢谢", "你好"})
	assert.Equal(t, map[string]string{"你好": "xin chào", "谢谢": "cảm ơn"}, got)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fallback.calls))

	cached, ok, err := store.Get(context.Background(), "你好_vi")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "xin chào", cached)

	// second call is served from cache
	got = svc.Translate(context.Background(), []string{"你好", "谢谢"})
	assert.Equal(t, "cảm ơn", got["谢谢"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fallback.calls))
}

func TestTranslateWithoutDeepL(t *testing.T) {
	fallback := &fakeTranslator{out: map[string]string{"朋友": "người bạn"}}
	svc := NewService(nil, fallback, newMemory(t), nil, Config{}, logger.Discard())

	got := svc.Translate(context.Background(), []string{"朋友", "飞"})
	assert.Equal(t, "người bạn", got["朋友"])
	assert.Equal(t, "bay", got["飞"])
}

func TestTranslateBasicDictionary(t *testing.T) {
	svc := NewService(nil, ai.Unavailable{}, newMemory(t), nil, Config{}, logger.Discard())

	got := svc.Translate(context.Background(), []string{"老师", "电脑"})
	assert.Equal(t, "giáo viên", got["老师"])
	assert.Equal(t, "[Cần dịch: 电脑]", got["电脑"])
}

func TestTranslateModelError(t *testing.T) {
	svc := NewService(nil, &fakeTranslator{err: errors.New("quota")}, newMemory(t), nil, Config{}, logger.Discard())
	got := svc.Translate(context.Background(), []string{"学校"})
	assert.Equal(t, "trường học", got["学校"])
}
