package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spill/domain"
	"spill/errors"
	"spill/relay"
	"spill/repositories"
	"spill/services"
	"spill/storage"
)

const userListLimit = 50

var validate = validator.New()

type Handler struct {
	log        *slog.Logger
	svc        services.IChatService
	users      repositories.IUserRepository
	authorizer *relay.Authorizer
	avatars    *storage.AvatarStore // nil when blob storage is not configured
}

func NewHandler(log *slog.Logger, svc services.IChatService, users repositories.IUserRepository,
	authorizer *relay.Authorizer, avatars *storage.AvatarStore) *Handler {
	return &Handler{log: log, svc: svc, users: users, authorizer: authorizer, avatars: avatars}
}

type SendRequest struct {
	Content    string             `json:"content" validate:"required"`
	ReceiverID string             `json:"receiverId" validate:"required,excludesall=-"`
	Type       domain.MessageType `json:"type"`
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) error {
	identity, err := IdentityFromCtx(r)
	if err != nil {
		return err
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fmt.Errorf("%w: bad json", errors.ErrInvalidRequest)
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}

	message, channel, err := h.svc.Send(r.Context(), identity, req.ReceiverID, req.Content, req.Type)
	if err != nil {
		return err
	}
	WriteJSON(w, map[string]any{
		"success": true,
		"message": message,
		"channel": channel,
	}, http.StatusOK)
	return nil
}

type ReadRequest struct {
	MessageIDs []string `json:"messageIds" validate:"required,min=1"`
	SenderID   string   `json:"senderId" validate:"required"`
}

func (h *Handler) Read(w http.ResponseWriter, r *http.Request) error {
	identity, err := IdentityFromCtx(r)
	if err != nil {
		return err
	}

	var req ReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fmt.Errorf("%w: bad json", errors.ErrInvalidRequest)
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}

	if err := h.svc.MarkRead(r.Context(), identity.ID, req.MessageIDs, req.SenderID); err != nil {
		return err
	}
	WriteJSON(w, map[string]bool{"success": true}, http.StatusOK)
	return nil
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) error {
	identity, err := IdentityFromCtx(r)
	if err != nil {
		return err
	}

	otherUserID := r.URL.Query().Get("otherUserId")
	if otherUserID == "" {
		return fmt.Errorf("%w: missing otherUserId parameter", errors.ErrInvalidRequest)
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, hasMore, err := h.svc.History(r.Context(), identity.ID, otherUserID, page, limit)
	if err != nil {
		return err
	}
	WriteJSON(w, map[string]any{
		"messages": messages,
		"hasMore":  hasMore,
	}, http.StatusOK)
	return nil
}

// RelayAuth signs a channel subscription for one of the two participants
// encoded in the channel name. The relay client posts form-encoded
// socket_id and channel_name during its handshake.
func (h *Handler) RelayAuth(w http.ResponseWriter, r *http.Request) error {
	identity, err := IdentityFromCtx(r)
	if err != nil {
		return err
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: bad form body", errors.ErrInvalidRequest)
	}
	socketID := r.PostForm.Get("socket_id")
	channelName := r.PostForm.Get("channel_name")
	if socketID == "" || channelName == "" {
		return fmt.Errorf("%w: missing socket_id or channel_name", errors.ErrInvalidRequest)
	}

	grant, err := h.authorizer.Authorize(identity.ID, socketID, channelName)
	if err != nil {
		return err
	}
	WriteJSON(w, grant, http.StatusOK)
	return nil
}

// Users lists conversation targets, excluding the caller.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) error {
	identity, err := IdentityFromCtx(r)
	if err != nil {
		return err
	}

	users, err := h.users.List(identity.ID, userListLimit)
	if err != nil {
		return err
	}
	type userView struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		ImageURL string `json:"imageUrl"`
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{ID: u.ID, Name: u.Name, Email: u.Email, ImageURL: u.ImageURL})
	}
	WriteJSON(w, views, http.StatusOK)
	return nil
}

// UploadAvatar stores a profile image and points the caller's profile at
// it. Requires the blob storage collaborator to be configured.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) error {
	identity, err := IdentityFromCtx(r)
	if err != nil {
		return err
	}
	if h.avatars == nil {
		return fmt.Errorf("avatar storage not configured")
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxAvatarBytes)
	if err := r.ParseMultipartForm(storage.MaxAvatarBytes); err != nil {
		return fmt.Errorf("%w: file too large or malformed form", errors.ErrInvalidRequest)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: no file provided", errors.ErrInvalidRequest)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}

	url, err := h.avatars.Put(r.Context(), identity.ID, data)
	if err != nil {
		return err
	}
	if err := h.users.UpdateImageURL(identity.ID, url); err != nil {
		h.log.Warn("Avatar stored but profile update failed", "user", identity.ID, "error", err)
	}
	WriteJSON(w, map[string]string{"imageUrl": url}, http.StatusOK)
	return nil
}

// Routes assembles the full HTTP surface.
func Routes(h *Handler, authenticated func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /api/messages/history", authenticated(Wrap(h.History)))
	mux.Handle("POST /api/messages/send", authenticated(Wrap(h.Send)))
	mux.Handle("POST /api/messages/read", authenticated(Wrap(h.Read)))
	mux.Handle("POST /api/relay/auth", authenticated(Wrap(h.RelayAuth)))
	mux.Handle("GET /api/users", authenticated(Wrap(h.Users)))
	mux.Handle("POST /api/avatar", authenticated(Wrap(h.UploadAvatar)))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})
	return mux
}
