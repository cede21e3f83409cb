package worker

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/learnloop/engage-api/internal/email"
	"github.com/learnloop/engage-api/internal/model"
	"github.com/learnloop/engage-api/internal/service/dispatch"
	"github.com/learnloop/engage-api/internal/service/mailbox"
	"github.com/learnloop/engage-api/internal/service/recommendation"
	"github.com/learnloop/engage-api/pkg/logger"
)

// signatureHeader carries the scheduler's detached JWT over each
// delivery.
const signatureHeader = "Upstash-Signature"

// DeliveryServer receives the scheduler's HTTP callbacks and turns them
// into user-facing messages. Deliveries are at-least-once: a duplicate
// trigger produces a duplicate notification, which the mailbox tolerates.
type DeliveryServer struct {
	mailbox     mailbox.Mailbox
	recommender recommendation.Recommender
	email       email.Service
	signingKey  []byte
	logger      *logger.Logger
}

func NewDeliveryServer(
	mb mailbox.Mailbox,
	rec recommendation.Recommender,
	mail email.Service,
	signingKey string,
	l *logger.Logger,
) *DeliveryServer {
	return &DeliveryServer{
		mailbox:     mb,
		recommender: rec,
		email:       mail,
		signingKey:  []byte(signingKey),
		logger:      l,
	}
}

// Register attaches the callback endpoints to the mux.
func (s *DeliveryServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("/callbacks/reminder", s.verified(s.handleReminder))
	mux.HandleFunc("/callbacks/digest", s.verified(s.handleDigest))
}

// verified rejects deliveries whose signature does not parse against the
// configured signing key. With no key configured (local development, noop
// scheduler) verification is skipped.
func (s *DeliveryServer) verified(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if len(s.signingKey) > 0 {
			raw := r.Header.Get(signatureHeader)
			if raw == "" {
				http.Error(w, "missing signature", http.StatusUnauthorized)
				return
			}
			_, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return s.signingKey, nil
			})
			if err != nil {
				s.logger.Warn("rejected delivery with bad signature", "path", r.URL.Path)
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *DeliveryServer) handleReminder(w http.ResponseWriter, r *http.Request) {
	var payload dispatch.ReminderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.UserID == "" || payload.CourseID == "" {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	title := "Continue your course"
	message := fmt.Sprintf("You have unfinished progress in %s.", payload.CourseID)
	link := "/courses/" + payload.CourseID

	if _, err := s.mailbox.Add(ctx, payload.UserID, model.NotificationReminder, title, message, link); err != nil {
		s.logger.Error(err, "failed to deliver reminder notification", "user_id", payload.UserID)
	}

	if payload.Email != "" {
		if err := s.email.SendReminder(ctx, payload.Email, payload.CourseID); err != nil {
			s.logger.Error(err, "failed to send reminder email", "user_id", payload.UserID)
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (s *DeliveryServer) handleDigest(w http.ResponseWriter, r *http.Request) {
	var payload dispatch.DigestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.UserID == "" {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	courses := s.recommender.RecommendedCourses(ctx, payload.UserID, 5)
	if len(courses) == 0 {
		// Nothing to say this week; skip rather than send an empty digest.
		w.WriteHeader(http.StatusOK)
		return
	}

	message := "This week we picked for you: "
	for i, course := range courses {
		if i > 0 {
			message += ", "
		}
		message += course
	}

	if _, err := s.mailbox.Add(ctx, payload.UserID, model.NotificationAnnouncement, "Your weekly digest", message, "/recommendations"); err != nil {
		s.logger.Error(err, "failed to deliver digest notification", "user_id", payload.UserID)
	}

	if payload.Email != "" {
		if err := s.email.SendDigest(ctx, payload.Email, courses); err != nil {
			s.logger.Error(err, "failed to send digest email", "user_id", payload.UserID)
		}
	}

	w.WriteHeader(http.StatusOK)
}
