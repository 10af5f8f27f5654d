package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/agritrust/internal/common"
	"github.com/dmitrijs2005/agritrust/internal/server/chatbot"
	"github.com/dmitrijs2005/agritrust/internal/server/models"
	"github.com/dmitrijs2005/agritrust/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const multipartMemory = 8 << 20

type emailView struct {
	Email string `json:"email"`
}

type syncUserView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type profileView struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserName     string `json:"username"`
	FullName     string `json:"full_name"`
	FarmLocation string `json:"farm_location"`
}

func newProfileView(u *models.User) profileView {
	return profileView{ID: u.ID, Email: u.Email, UserName: u.UserName, FullName: u.FullName, FarmLocation: u.FarmLocation}
}

type fileView struct {
	ID          string    `json:"id"`
	User        string    `json:"user"`
	File        string    `json:"file"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Timestamp   time.Time `json:"timestamp"`
}

func newFileView(v *services.FileView) fileView {
	return fileView{
		ID:          v.File.ID,
		User:        v.File.UserID,
		File:        v.URL,
		FileName:    v.File.FileName,
		ContentType: v.File.ContentType,
		Size:        v.File.Size,
		Timestamp:   v.File.CreatedAt,
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return common.NewValidationError("body", "request body is empty")
		}
		return common.NewValidationError("body", "malformed JSON")
	}
	return nil
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Hello, world. You're at the userfiles index.")
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, tokens, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string              `json:"message"`
		User    emailView           `json:"user"`
		Tokens  *services.TokenPair `json:"tokens"`
	}{"Login successful", emailView{user.Email}, tokens})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		UserName     string `json:"username"`
		FullName     string `json:"full_name"`
		FarmLocation string `json:"farm_location"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.Register(r.Context(), services.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		UserName:     req.UserName,
		FullName:     req.FullName,
		FarmLocation: req.FarmLocation,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Message string    `json:"message"`
		User    emailView `json:"user"`
	}{"User registered successfully", emailView{user.Email}})
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Refresh == "" {
		s.writeError(w, r, common.NewValidationError("refresh", "This field is required."))
		return
	}

	tokens, err := s.users.Refresh(r.Context(), req.Refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Tokens *services.TokenPair `json:"tokens"`
	}{tokens})
}

func (s *Server) sync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		FullName     string `json:"full_name"`
		FarmLocation string `json:"farm_location"`
	}
	// an unreadable body is treated like a body without an email
	_ = json.NewDecoder(r.Body).Decode(&req)

	if strings.TrimSpace(req.Email) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Email is required"})
		return
	}

	res, err := s.users.LinkOrCreate(r.Context(), req.Email, req.FullName, req.FarmLocation)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	usersSynced.WithLabelValues(strconv.FormatBool(res.Created)).Inc()

	writeJSON(w, http.StatusOK, struct {
		Message string              `json:"message"`
		Created bool                `json:"created"`
		User    syncUserView        `json:"user"`
		Tokens  *services.TokenPair `json:"tokens"`
	}{
		Message: "User synced successfully",
		Created: res.Created,
		User:    syncUserView{ID: res.User.ID, Email: res.User.Email, FullName: res.User.FullName},
		Tokens:  res.Tokens,
	})
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	if s.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, r, err)
			return
		}
		s.writeError(w, r, common.NewValidationError("file", "The submitted data was not a file. Check the encoding type on the form."))
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, common.NewValidationError("file", "No file was submitted."))
		return
	}
	defer f.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	v, err := s.files.Upload(r.Context(), services.Upload{
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        f,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filesUploaded.Inc()

	writeJSON(w, http.StatusCreated, newFileView(v))
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	views, err := s.files.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]fileView, 0, len(views))
	for _, v := range views {
		out = append(out, newFileView(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileView(u))
}

func (s *Server) createFarmer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		UserName     string `json:"username"`
		FullName     string `json:"full_name"`
		FarmLocation string `json:"farm_location"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.users.CreateFarmer(r.Context(), services.FarmerInput{
		Email:        req.Email,
		UserName:     req.UserName,
		FullName:     req.FullName,
		FarmLocation: req.FarmLocation,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProfileView(u))
}

// whatsappWebhook answers the messaging gateway. It always replies 200 with
// TwiML; malformed input is read as an empty message.
func (s *Server) whatsappWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.logger.Warn(r.Context(), "unreadable webhook payload", "error", err)
	}

	msg := chatbot.InboundMessage{
		From:     r.PostFormValue("From"),
		Body:     strings.TrimSpace(r.PostFormValue("Body")),
		NumMedia: r.PostFormValue("NumMedia"),
		MediaURL: r.PostFormValue("MediaUrl0"),
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.bot.Reply(r.Context(), msg))
}
