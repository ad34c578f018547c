package webhook

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot/models"
)

// SecretHeader carries the secret token set when the webhook was registered.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// handleUpdate acknowledges every well-formed delivery immediately so the
// platform does not redeliver, and processes each update id at most once per
// dedup window.
func (s *Server) handleUpdate(c *gin.Context) {
	if s.cfg.Secret != "" {
		got := c.GetHeader(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.Secret)) != 1 {
			s.metrics.UpdateRejected("bad_secret")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid secret token"})
			return
		}
	}

	var update models.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		s.metrics.UpdateRejected("malformed")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed update"})
		return
	}
	if update.ID <= 0 {
		s.metrics.UpdateRejected("missing_id")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing update_id"})
		return
	}

	log := s.log.With(logger.Int64("update_id", update.ID))

	first, err := s.seen.MarkSeen(c.Request.Context(), update.ID)
	if err != nil {
		// fail open
		log.Warn("Dedup check failed, processing anyway", logger.Error(err))
		first = true
	}
	if !first {
		s.metrics.UpdateDuplicate()
		log.Info("Duplicate update skipped")
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	s.metrics.UpdateReceived()
	// detached from the request, which ends with the 200 below
	ctx, cancel := context.WithTimeout(s.base, s.cfg.RunTimeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("Update handler panicked", logger.Any("panic", rec))
			}
		}()
		s.dispatcher.ProcessUpdate(ctx, &update)
	}()

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
