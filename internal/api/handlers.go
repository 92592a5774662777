package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"cenometr/server/config"
	"cenometr/server/internal/database"
	"cenometr/server/internal/models"
	"cenometr/server/internal/normalize"
	"cenometr/server/internal/queue"
	"cenometr/server/internal/stats"
	"cenometr/server/internal/trend"
)

type Handler struct {
	db     *database.Database
	queue  *queue.ListingQueue
	trends *trend.Calculator
	config *config.Config
	logger *logrus.Logger
}

func NewHandler(db *database.Database, q *queue.ListingQueue, trends *trend.Calculator, cfg *config.Config, logger *logrus.Logger) *Handler {
	return &Handler{
		db:     db,
		queue:  q,
		trends: trends,
		config: cfg,
		logger: logger,
	}
}

// SnapshotPayload decorates a stored snapshot with the room histogram in
// the map form the frontend consumes.
type SnapshotPayload struct {
	*models.DistrictStats
	RoomHistogram map[string]int `json:"room_histogram"`
}

// DistrictStatsRow is one map polygon with its latest statistics attached.
// Stats and Trend are null for districts that have no aggregated data yet;
// the polygon still renders, just uncolored.
type DistrictStatsRow struct {
	City        string             `json:"city"`
	District    string             `json:"district"`
	Name        string             `json:"name"`
	CentroidLat float64            `json:"centroid_lat"`
	CentroidLng float64            `json:"centroid_lng"`
	Boundary    json.RawMessage    `json:"boundary,omitempty"`
	Stats       *SnapshotPayload   `json:"stats"`
	Trend       *models.TrendDelta `json:"trend"`
}

type HistoryResponse struct {
	City      string                 `json:"city"`
	District  string                 `json:"district"`
	OfferType models.OfferType       `json:"offer_type"`
	Snapshots []models.DistrictStats `json:"snapshots"`
	Trend     *models.TrendDelta     `json:"trend"`
}

type CitySummary struct {
	City          string           `json:"city"`
	OfferType     models.OfferType `json:"offer_type"`
	Districts     int              `json:"districts"`
	TotalListings int              `json:"total_listings"`
	NewListings   int              `json:"new_listings"`
	AvgPriceM2    float64          `json:"avg_price_m2"`
	LatestDate    string           `json:"latest_date,omitempty"`
}

func (h *Handler) offerTypeParam(c *gin.Context) (models.OfferType, bool) {
	offer := models.OfferType(c.DefaultQuery("offer_type", string(models.OfferSale)))
	if !offer.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offer_type must be sale or rent"})
		return "", false
	}
	return offer, true
}

// GetDistrictStats returns every district of a city with its latest
// snapshot and 30-day trend. Districts without data still appear so the map
// can render their polygons.
func (h *Handler) GetDistrictStats(c *gin.Context) {
	city := normalize.Slug(c.Query("city"))
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city parameter is required"})
		return
	}
	offer, ok := h.offerTypeParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	districts, err := h.db.DistrictsByCity(ctx, city)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get districts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get districts"})
		return
	}

	snaps, err := h.db.LatestSnapshotsByCity(ctx, city, offer)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest snapshots")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get district stats"})
		return
	}
	byDistrict := make(map[string]*models.DistrictStats, len(snaps))
	for i := range snaps {
		byDistrict[snaps[i].District] = &snaps[i]
	}

	rows := make([]DistrictStatsRow, 0, len(districts))
	for _, d := range districts {
		row := DistrictStatsRow{
			City:        d.City,
			District:    d.District,
			Name:        d.Name,
			CentroidLat: d.CentroidLat,
			CentroidLng: d.CentroidLng,
			Boundary:    json.RawMessage(d.Boundary),
		}
		if snap := byDistrict[d.District]; snap != nil {
			row.Stats = &SnapshotPayload{
				DistrictStats: snap,
				RoomHistogram: snap.RoomHistogram(),
			}
			delta, err := h.trends.Relative(ctx, snap)
			if err != nil {
				// Stats still render; only the trend arrow is lost.
				h.logger.WithError(err).WithField("district", d.District).Warn("Failed to compute trend")
			} else {
				row.Trend = delta
			}
		}
		rows = append(rows, row)
	}

	c.JSON(http.StatusOK, rows)
}

// GetDistrictHistory returns the snapshot series for one district, oldest
// first, with a summary delta between the first and last points.
func (h *Handler) GetDistrictHistory(c *gin.Context) {
	city := normalize.Slug(c.Query("city"))
	district := normalize.Slug(c.Query("district"))
	if city == "" || district == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city and district parameters are required"})
		return
	}
	offer, ok := h.offerTypeParam(c)
	if !ok {
		return
	}

	monthsBack, err := strconv.Atoi(c.DefaultQuery("months_back", "6"))
	if err != nil || monthsBack < 1 {
		monthsBack = 6
	}
	if monthsBack > 36 {
		monthsBack = 36
	}
	from := models.DateOf(time.Now().UTC().AddDate(0, -monthsBack, 0))

	history, err := h.db.SnapshotHistory(c.Request.Context(), city, district, offer, from)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get snapshot history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get district history"})
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{
		City:      city,
		District:  district,
		OfferType: offer,
		Snapshots: history,
		Trend:     trend.WindowSummary(history),
	})
}

func floatParam(c *gin.Context, name string) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func roomsParam(c *gin.Context) []int {
	raw := c.Query("rooms")
	if raw == "" {
		return nil
	}
	var rooms []int
	for _, part := range strings.Split(raw, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && n > 0 {
			rooms = append(rooms, n)
		}
	}
	return rooms
}

// GetListings serves the detail panel behind a district click. Limit
// defaults to 200 and is capped at 500; out-of-range values are clamped,
// not rejected.
func (h *Handler) GetListings(c *gin.Context) {
	filter := database.ListingFilter{
		City:     normalize.Slug(c.Query("city")),
		District: normalize.Slug(c.Query("district")),
		PriceMin: floatParam(c, "price_min"),
		PriceMax: floatParam(c, "price_max"),
		SizeMin:  floatParam(c, "size_min"),
		SizeMax:  floatParam(c, "size_max"),
		Rooms:    roomsParam(c),
	}
	if raw := c.Query("offer_type"); raw != "" {
		offer := models.OfferType(raw)
		if !offer.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offer_type must be sale or rent"})
			return
		}
		filter.OfferType = offer
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if err != nil || limit < 1 {
		limit = 200
	}
	if limit > 500 {
		limit = 500
	}
	filter.Limit = limit

	listings, err := h.db.FilterListings(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listings"})
		return
	}

	c.JSON(http.StatusOK, listings)
}

// GetDistrictsInViewport returns districts overlapping the map viewport,
// expanded to whole cities so polygons never get clipped at the edge.
func (h *Handler) GetDistrictsInViewport(c *gin.Context) {
	parse := func(name string) (float64, error) {
		return strconv.ParseFloat(c.Query(name), 64)
	}
	west, errW := parse("west")
	south, errS := parse("south")
	east, errE := parse("east")
	north, errN := parse("north")
	if errW != nil || errS != nil || errE != nil || errN != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "west, south, east and north must be valid coordinates"})
		return
	}
	if west > east || south > north {
		c.JSON(http.StatusBadRequest, gin.H{"error": "viewport bounds are inverted"})
		return
	}

	viewport := orb.Bound{Min: orb.Point{west, south}, Max: orb.Point{east, north}}
	districts, err := h.db.DistrictsInViewport(c.Request.Context(), viewport)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get viewport districts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get districts"})
		return
	}

	c.JSON(http.StatusOK, districts)
}

// GetCitySummary rolls the latest district snapshots of a city up into one
// headline row.
func (h *Handler) GetCitySummary(c *gin.Context) {
	city := normalize.Slug(c.Query("city"))
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city parameter is required"})
		return
	}
	offer, ok := h.offerTypeParam(c)
	if !ok {
		return
	}

	snaps, err := h.db.LatestSnapshotsByCity(c.Request.Context(), city, offer)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get city summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get city summary"})
		return
	}

	summary := CitySummary{City: city, OfferType: offer, Districts: len(snaps)}
	if len(snaps) > 0 {
		avgs := make([]float64, len(snaps))
		latest := snaps[0].Date
		for i, s := range snaps {
			avgs[i] = s.AvgPriceM2
			summary.TotalListings += s.ListingCount
			summary.NewListings += s.NewListings
			if s.Date.After(latest) {
				latest = s.Date
			}
		}
		summary.AvgPriceM2 = stats.Round2(stats.Mean(avgs))
		summary.LatestDate = latest.String()
	}

	c.JSON(http.StatusOK, summary)
}

// GetCities lists the supported cities with their map centers.
func (h *Handler) GetCities(c *gin.Context) {
	c.JSON(http.StatusOK, config.SupportedCities)
}

// IngestListings accepts a scraped batch and enqueues it for the workers.
// The 202 reply acknowledges receipt, not persistence; a full queue answers
// 503 so the scraper backs off and retries.
func (h *Handler) IngestListings(c *gin.Context) {
	var batch []models.ScrapedListing
	if err := c.ShouldBindJSON(&batch); err != nil {
		h.logger.WithError(err).Error("Failed to parse listing batch")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing batch"})
		return
	}
	if len(batch) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Batch is empty"})
		return
	}
	if max := h.config.Ingest.MaxBatchSize; max > 0 && len(batch) > max {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Batch exceeds %d listings", max)})
		return
	}

	if err := h.queue.Push(batch); err != nil {
		h.logger.WithError(err).WithField("batch_size", len(batch)).Warn("Rejected listing batch")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"queued":      len(batch),
		"queue_depth": h.queue.Len(),
	})
}

// Health reports whether the API can reach its database.
func (h *Handler) Health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
