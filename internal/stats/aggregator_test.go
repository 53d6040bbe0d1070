package stats

import (
	"testing"
	"time"

	"whatdidido/internal/storage"
	"whatdidido/pkg/models"

	"github.com/stretchr/testify/require"
)

// newTestAggregator 在临时目录创建存储和聚合器
func newTestAggregator(t *testing.T) (*Aggregator, *storage.Store) {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewAggregator(store), store
}

// addSample 写入一条指定时刻和分类的样本
func addSample(t *testing.T, store *storage.Store, ts time.Time, category models.Category) *models.Screenshot {
	t.Helper()
	ss := &models.Screenshot{
		Timestamp: ts,
		Category:  category,
		Activity:  "测试活动",
		Image:     []byte("img"),
		Thumbnail: []byte("thumb"),
	}
	require.NoError(t, store.SaveScreenshot(ss))
	return ss
}
