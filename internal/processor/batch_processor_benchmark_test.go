package processor

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"cenometr/server/internal/database"
	"cenometr/server/internal/ingest"
	"cenometr/server/internal/models"
	"cenometr/server/internal/queue"
)

func BenchmarkProcessBatch(b *testing.B) {
	batchSizes := []int{10, 100, 500}

	for _, size := range batchSizes {
		b.Run(fmt.Sprintf("BatchSize_%d", size), func(b *testing.B) {
			db, err := database.NewTestDB()
			require.NoError(b, err)
			defer db.Close()

			require.NoError(b, db.UpsertDistricts(context.Background(), []models.District{
				{City: "warszawa", District: "mokotow", Name: "Mokotów"},
			}))

			logger := logrus.New()
			logger.SetLevel(logrus.WarnLevel) // Reduce logging noise during benchmarks
			cfg := testConfig()

			ingestor := ingest.NewIngestor(db, logger)
			processor := NewBatchProcessor(ingestor, queue.NewListingQueue(1, logger), cfg, logger)
			batch := scrapedBatch("bench", size)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				require.NoError(b, processor.processBatch(batch))
			}
		})
	}
}
