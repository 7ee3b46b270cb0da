package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"dokterku/models"
	"dokterku/pkg/ocr"
	"dokterku/pkg/validasi"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

var centsRE = regexp.MustCompile(`[.,]\d{2}$`)

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/transaksi", createTransaksiHandler)
	authGroup.GET("/transaksi", listTransaksiHandler)
	authGroup.GET("/transaksi/:id", getTransaksiHandler)
	authGroup.PATCH("/transaksi/:id", editTransaksiHandler)
	authGroup.DELETE("/transaksi/:id", deleteTransaksiHandler)
	authGroup.POST("/transaksi/:id/validate", validateTransaksiHandler)
	authGroup.GET("/rekap", rekapHandler)
	authGroup.GET("/jaspel", jaspelHandler)
	authGroup.POST("/profile", createProfileHandler)
	authGroup.GET("/profile", getProfileHandler)
	authGroup.POST("/bukti", uploadBuktiHandler)
	authGroup.GET("/bukti", listBuktiHandler)
	authGroup.GET("/bukti/:id", getBuktiHandler)
	authGroup.GET("/notifications", listNotificationsHandler)
	authGroup.GET("/audit", listAuditHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	roleVal, _ := c.Get("role")
	c.JSON(http.StatusOK, gin.H{"username": usernameVal, "role": roleVal})
}

// getUserFromContext fetches the currently authenticated user using the username set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	uname := unameVal.(string)
	var user models.User
	if err := db.Where("username = ?", uname).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// actorFromContext builds the explicit actor passed into every workflow call.
func actorFromContext(c *gin.Context) (validasi.Actor, *models.User, bool) {
	user, ok := getUserFromContext(c)
	if !ok {
		return validasi.Actor{}, nil, false
	}
	role := c.GetString("role")
	if role == "" {
		role = roleNameOf(user)
	}
	actor := validasi.Actor{ID: user.ID, Username: user.Username}
	if role != "" {
		actor.Roles = []string{role}
	}
	return actor, user, true
}

// privilegedReader reports whether the role may read records of all users.
func privilegedReader(role string) bool {
	return role == validasi.RoleAdmin || role == validasi.RoleBendahara || role == validasi.RoleManajer
}

// forbiddenMessage maps a gate denial reason to its user-facing copy. Every
// denial renders a distinct message, never a generic one.
func forbiddenMessage(r validasi.DenyReason) string {
	switch r {
	case validasi.ReasonNotOwner:
		return "hanya pembuat transaksi yang dapat mengubah atau menghapusnya"
	case validasi.ReasonNotStaffRole:
		return "peran Anda tidak diizinkan mencatat transaksi jenis ini"
	case validasi.ReasonNotValidator:
		return "hanya bendahara yang dapat memvalidasi transaksi"
	case validasi.ReasonSelfValidation:
		return "pembuat transaksi tidak dapat memvalidasi transaksinya sendiri"
	case validasi.ReasonRecordLocked:
		return "transaksi sudah divalidasi dan terkunci"
	}
	return "akses ditolak"
}

// respondWorkflowError maps workflow errors to HTTP statuses and distinct
// Indonesian messages.
func respondWorkflowError(c *gin.Context, err error) {
	var mf *validasi.MissingFieldError
	var fe *validasi.ForbiddenError
	var se *validasi.StoreError
	switch {
	case errors.Is(err, validasi.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "jumlah tidak boleh negatif"})
	case errors.Is(err, validasi.ErrInvalidDecision):
		c.JSON(http.StatusBadRequest, gin.H{"error": "keputusan harus disetujui atau ditolak"})
	case errors.As(err, &mf):
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("kolom %s wajib diisi", mf.Field)})
	case errors.As(err, &fe):
		c.JSON(http.StatusForbidden, gin.H{"error": forbiddenMessage(fe.Reason), "reason": fe.Reason})
	case errors.Is(err, validasi.ErrRecordLocked):
		c.JSON(http.StatusConflict, gin.H{"error": "transaksi sudah divalidasi dan tidak dapat diubah"})
	case errors.Is(err, validasi.ErrAlreadyValidated):
		c.JSON(http.StatusConflict, gin.H{"error": "transaksi sudah divalidasi bendahara lain; muat ulang untuk melihat status terbaru"})
	case errors.Is(err, validasi.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "transaksi tidak ditemukan"})
	case errors.As(err, &se):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "penyimpanan sedang tidak tersedia, coba beberapa saat lagi"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func transaksiJSON(rec *validasi.Record) gin.H {
	h := gin.H{
		"id":          rec.ID,
		"kind":        rec.Kind,
		"amount":      rec.Amount,
		"category":    rec.Category,
		"description": rec.Description,
		"created_by":  rec.CreatedBy,
		"occurred_at": rec.OccurredAt,
		"status":      rec.Status,
	}
	if rec.ValidatedBy != nil {
		h["validated_by"] = *rec.ValidatedBy
		h["validated_at"] = rec.ValidatedAt
	}
	if rec.ValidationNote != "" {
		h["validation_note"] = rec.ValidationNote
	}
	return h
}

// parseDate accepts RFC3339 or a bare YYYY-MM-DD business date.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// createTransaksiHandler enters a new draft for the authenticated user.
func createTransaksiHandler(c *gin.Context) {
	actor, _, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Kind        string          `json:"kind" binding:"required"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		OccurredAt  string          `json:"occurred_at"` // optional, RFC3339 or YYYY-MM-DD
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	draft := validasi.Draft{
		Kind:        validasi.Kind(req.Kind),
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.OccurredAt != "" {
		t, err := parseDate(req.OccurredAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "occurred_at harus RFC3339 atau YYYY-MM-DD"})
			return
		}
		draft.OccurredAt = t
	}
	rec, err := workflow.Create(actor, draft)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaksiJSON(rec))
}

// listTransaksiHandler lists records; staff see their own, bendahara/manajer/admin see all.
func listTransaksiHandler(c *gin.Context) {
	actor, _, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var f validasi.ListFilter
	if v := c.Query("status"); v != "" {
		st := validasi.Status(v)
		f.Status = &st
	}
	if v := c.Query("kind"); v != "" {
		k := validasi.Kind(v)
		f.Kind = &k
	}
	if v := c.Query("from"); v != "" {
		if t, err := parseDate(v); err == nil {
			f.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := parseDate(v); err == nil {
			f.To = &t
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	role := ""
	if len(actor.Roles) > 0 {
		role = actor.Roles[0]
	}
	if !privilegedReader(role) {
		id := actor.ID
		f.CreatedBy = &id
	}
	recs, err := workflow.List(f)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	out := make([]gin.H, 0, len(recs))
	for i := range recs {
		out = append(out, transaksiJSON(&recs[i]))
	}
	c.JSON(http.StatusOK, out)
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func getTransaksiHandler(c *gin.Context) {
	actor, _, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	rec, err := workflow.Get(id)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	role := ""
	if len(actor.Roles) > 0 {
		role = actor.Roles[0]
	}
	if !privilegedReader(role) && rec.CreatedBy != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": forbiddenMessage(validasi.ReasonNotOwner), "reason": validasi.ReasonNotOwner})
		return
	}
	c.JSON(http.StatusOK, transaksiJSON(rec))
}

func editTransaksiHandler(c *gin.Context) {
	actor, _, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Amount      *decimal.Decimal `json:"amount"`
		Category    *string          `json:"category"`
		Description *string          `json:"description"`
		OccurredAt  *string          `json:"occurred_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patch := validasi.Patch{Amount: req.Amount, Category: req.Category, Description: req.Description}
	if req.OccurredAt != nil {
		t, err := parseDate(*req.OccurredAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "occurred_at harus RFC3339 atau YYYY-MM-DD"})
			return
		}
		patch.OccurredAt = &t
	}
	rec, err := workflow.Edit(actor, id, patch)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaksiJSON(rec))
}

func deleteTransaksiHandler(c *gin.Context) {
	actor, _, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := workflow.Delete(actor, id); err != nil {
		respondWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaksi dihapus"})
}

// validateTransaksiHandler lets the bendahara decide a pending record exactly once.
func validateTransaksiHandler(c *gin.Context) {
	actor, _, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Decision string `json:"decision" binding:"required"` // disetujui | ditolak
		Note     string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := workflow.Validate(actor, id, validasi.Status(req.Decision), req.Note)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaksiJSON(rec))
}

// rekapHandler returns approved totals grouped by month and kind.
func rekapHandler(c *gin.Context) {
	role, _ := c.Get("role")
	if r, _ := role.(string); !privilegedReader(r) {
		c.JSON(http.StatusForbidden, gin.H{"error": "rekap hanya untuk bendahara, manajer, atau admin"})
		return
	}
	type Result struct {
		Month string
		Kind  string
		Total decimal.Decimal
	}
	var results []Result
	rows, err := db.Model(&models.Transaksi{}).
		Select("to_char(occurred_at, 'YYYY-MM') as month, kind, sum(amount) as total").
		Where("status = ?", string(validasi.StatusDisetujui)).
		Group("month, kind").Order("month desc, kind asc").Rows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	defer rows.Close()
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Month, &r.Kind, &r.Total); err == nil {
			results = append(results, r)
		}
	}
	c.JSON(http.StatusOK, results)
}

// jaspelPercent reads the service-fee share from env (default 40%).
func jaspelPercent() decimal.Decimal {
	if v := os.Getenv("JASPEL_PERCENT"); v != "" {
		if p, err := decimal.NewFromString(v); err == nil && p.IsPositive() {
			return p
		}
	}
	return decimal.NewFromInt(40)
}

// jaspelHandler derives service fees from approved tindakan records. Nothing
// is stored: the payout is always recomputed from the validated ledger.
func jaspelHandler(c *gin.Context) {
	actor, _, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	role := ""
	if len(actor.Roles) > 0 {
		role = actor.Roles[0]
	}
	percent := jaspelPercent()

	q := db.Model(&models.Transaksi{}).
		Select("created_by_id, users.username, sum(amount) as total").
		Joins("JOIN users ON users.id = transaksis.created_by_id").
		Where("transaksis.kind = ? AND transaksis.status = ?", string(validasi.KindTindakan), string(validasi.StatusDisetujui))
	if month := c.Query("month"); month != "" {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month harus YYYY-MM"})
			return
		}
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		q = q.Where("occurred_at >= ? AND occurred_at < ?", start, start.AddDate(0, 1, 0))
	}
	if !privilegedReader(role) {
		q = q.Where("created_by_id = ?", actor.ID)
	}
	rows, err := q.Group("created_by_id, users.username").Order("created_by_id asc").Rows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	defer rows.Close()

	type JaspelRow struct {
		UserID   uint            `json:"user_id"`
		Username string          `json:"username"`
		Total    decimal.Decimal `json:"total_tindakan"`
		Fee      decimal.Decimal `json:"jaspel"`
	}
	var out []JaspelRow
	hundred := decimal.NewFromInt(100)
	for rows.Next() {
		var r JaspelRow
		if err := rows.Scan(&r.UserID, &r.Username, &r.Total); err != nil {
			continue
		}
		r.Fee = r.Total.Mul(percent).Div(hundred).Round(2)
		out = append(out, r)
	}
	c.JSON(http.StatusOK, gin.H{"percent": percent, "rows": out})
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// self-service accounts are always petugas
	if err := RegisterUser(req.Username, req.Password, validasi.RolePetugas); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func createProfileHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Name    string `json:"name" binding:"required"`
		NIP     string `json:"nip"`
		Address string `json:"address"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Jabatan string `json:"jabatan"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile := models.Profile{UserID: user.ID, Name: req.Name, NIP: req.NIP, Address: req.Address, Email: req.Email, Phone: req.Phone, Jabatan: req.Jabatan}
	if err := db.Create(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": profile.ID})
}

func getProfileHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var p models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&p).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	roleName := roleNameOf(&user)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	rt := models.RefreshToken{UserID: userID, TokenHash: th, ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

// helper to find refresh token record by raw token string
func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleNameOf(&user),
		"exp":      time.Now().Add(15 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

// uploadBuktiHandler stores an expense proof for the current pegawai. OCR runs
// best-effort and only records a suggestion; the draft's typed amount is never
// overwritten.
func uploadBuktiHandler(c *gin.Context) {
	actor, user, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var profile models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile missing"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > 5*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 5MB)"})
		return
	}

	// optional link to an expense draft owned by the uploader
	var transaksiID *uint
	if v := c.PostForm("transaksi_id"); v != "" {
		parsed, _ := strconv.ParseUint(v, 10, 64)
		if parsed == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "transaksi_id invalid"})
			return
		}
		rec, err := workflow.Get(uint(parsed))
		if err != nil {
			respondWorkflowError(c, err)
			return
		}
		if rec.Kind != validasi.KindPengeluaran {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bukti hanya untuk transaksi pengeluaran"})
			return
		}
		if rec.CreatedBy != actor.ID && !actor.HasRole(validasi.RoleAdmin) {
			c.JSON(http.StatusForbidden, gin.H{"error": forbiddenMessage(validasi.ReasonNotOwner), "reason": validasi.ReasonNotOwner})
			return
		}
		id := uint(parsed)
		transaksiID = &id
	}

	ct := file.Header.Get("Content-Type")
	baseDir := uploadBaseDir()
	relPath := "bukti/" + file.Filename
	fullPath := baseDir + "/" + relPath
	if err := os.MkdirAll(baseDir+"/bukti", 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	storePath := "public/" + relPath

	// one bukti row per profile+filename; re-upload returns the existing row
	var existing models.Bukti
	if err := db.Where("profile_id = ? AND file_name = ?", profile.ID, file.Filename).First(&existing).Error; err == nil {
		if transaksiID != nil && existing.TransaksiID == nil {
			existing.TransaksiID = transaksiID
			db.Save(&existing)
		}
		c.JSON(http.StatusOK, buktiJSON(&existing))
		return
	}

	bk := models.Bukti{ProfileID: profile.ID, FileName: file.Filename, StorePath: storePath, ContentType: ct, TransaksiID: transaksiID}
	if err := db.Create(&bk).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}
	attachOCRSuggestion(&bk, fullPath)
	c.JSON(http.StatusOK, buktiJSON(&bk))
}

// attachOCRSuggestion runs receipt OCR and stores the extracted amount as a
// suggestion on the bukti row. Failures are recorded on the row, never
// returned to the uploader.
func attachOCRSuggestion(bk *models.Bukti, fullPath string) {
	amt, conf, found, err := ocr.ExtractAmountFromImage(fullPath)
	if err != nil {
		bk.Failed = true
		bk.FailedReason = err.Error()
		db.Save(bk)
		return
	}
	if amt <= 0 || conf <= 0.15 {
		return
	}
	// strip a decimal cents suffix the OCR sometimes globs onto the total
	if found != "" && centsRE.MatchString(strings.TrimSpace(found)) && amt%100 == 0 {
		amt = amt / 100
	}
	bk.SuggestedAmount = decimal.NewNullDecimal(decimal.NewFromInt(amt))
	bk.OCRConfidence = conf
	db.Save(bk)
}

func buktiJSON(bk *models.Bukti) gin.H {
	h := gin.H{
		"id":           bk.ID,
		"file_name":    bk.FileName,
		"store_path":   bk.StorePath,
		"transaksi_id": bk.TransaksiID,
	}
	if bk.SuggestedAmount.Valid {
		h["suggested_amount"] = bk.SuggestedAmount.Decimal
		h["ocr_confidence"] = bk.OCRConfidence
	}
	if bk.Failed {
		h["failed"] = true
		h["failed_reason"] = bk.FailedReason
	}
	return h
}

// listBuktiHandler returns bukti; bendahara/admin see all, others only their own.
func listBuktiHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var profile models.Profile
	db.Where("user_id = ?", user.ID).First(&profile)
	var items []models.Bukti
	q := db.Model(&models.Bukti{})
	if r, _ := role.(string); r != validasi.RoleAdmin && r != validasi.RoleBendahara {
		q = q.Where("profile_id = ?", profile.ID)
	}
	if err := q.Order("id desc").Limit(100).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// getBuktiHandler returns a single bukti if bendahara/admin or owner.
func getBuktiHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var profile models.Profile
	db.Where("user_id = ?", user.ID).First(&profile)
	id := c.Param("id")
	var bk models.Bukti
	if err := db.First(&bk, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if r, _ := role.(string); r != validasi.RoleAdmin && r != validasi.RoleBendahara && bk.ProfileID != profile.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, bk)
}

// listNotificationsHandler returns the caller's notifications, newest first.
func listNotificationsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.Notification
	if err := db.Where("user_id = ?", user.ID).Order("id desc").Limit(100).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// listAuditHandler exposes the append-only transition log to validators.
func listAuditHandler(c *gin.Context) {
	role, _ := c.Get("role")
	if r, _ := role.(string); r != validasi.RoleAdmin && r != validasi.RoleBendahara {
		c.JSON(http.StatusForbidden, gin.H{"error": "audit hanya untuk bendahara atau admin"})
		return
	}
	q := db.Model(&models.AuditEntry{})
	if v := c.Query("transaksi_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			q = q.Where("transaksi_id = ?", uint(n))
		}
	}
	var items []models.AuditEntry
	if err := q.Order("id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}
