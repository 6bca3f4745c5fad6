// Package fakeapi は管理APIのインプロセス代替実装を提供する。
//
// 実際のサーバーと同じパスとJSON形式で応答し、データはメモリ上に保持する。
// httptest.NewServerと組み合わせて、Gatewayやadminパッケージのテストに使う。
package fakeapi

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// BasePath は管理APIのルートパス。
const BasePath = "/api/admin"

// Admin はログイン可能な管理者。
type Admin struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// Application は入学申請レコード。
type Application struct {
	ID                string    `json:"_id"`
	StudentName       string    `json:"student_name"`
	FatherName        string    `json:"father_name"`
	District          string    `json:"district"`
	Class             string    `json:"class"`
	StudentPhotoPath  string    `json:"student_photo_path,omitempty"`
	ApplicationStatus string    `json:"applicationStatus"`
	IsRead            bool      `json:"isRead"`
	Password          string    `json:"password,omitempty"`
	Version           int       `json:"__v"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Message はお知らせメッセージ。
type Message struct {
	ID             string    `json:"_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	SentBy         string    `json:"sentBy"`
	TargetAudience string    `json:"targetAudience"`
	SentAt         time.Time `json:"sentAt"`
}

// Syllabus はクラスごとのシラバスPDF。
type Syllabus struct {
	ID        string    `json:"_id"`
	Class     string    `json:"class"`
	PDFURL    string    `json:"pdfUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// Datesheet は試験日程表PDF。
type Datesheet struct {
	ID        string    `json:"_id"`
	ExamName  string    `json:"examName"`
	Year      string    `json:"year"`
	Class     string    `json:"class"`
	PDF       string    `json:"pdf"`
	CreatedAt time.Time `json:"createdAt"`
}

// Contact は問い合わせフォームの送信内容。
type Contact struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// samplePDF はダウンロード系エンドポイントが返すPDF。
var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

// Server は管理APIの代替サーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// jwtSecret はJWT署名用の秘密鍵。
	jwtSecret string

	mu           sync.Mutex
	admins       map[string]Admin
	applications map[string]*Application
	messages     map[string]*Message
	syllabi      map[string]*Syllabus
	datesheets   map[string]*Datesheet
	contacts     map[string]*Contact
	users        int
	uploads      map[string][]byte
}

// New は空の代替サーバーを生成する。
func New(jwtSecret string) *Server {
	router := gin.New()
	router.Use(recovery())

	s := &Server{
		router:       router,
		jwtSecret:    jwtSecret,
		admins:       make(map[string]Admin),
		applications: make(map[string]*Application),
		messages:     make(map[string]*Message),
		syllabi:      make(map[string]*Syllabus),
		datesheets:   make(map[string]*Datesheet),
		contacts:     make(map[string]*Contact),
		uploads:      make(map[string][]byte),
	}
	s.setupRoutes()
	return s
}

// Handler はhttptest.NewServerに渡すハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	root := s.router.Group(BasePath)
	// ログイン（認証不要）
	root.POST("/login", s.handleLogin())

	api := root.Group("")
	api.Use(bearerAuth(s.jwtSecret))
	{
		// 入学申請
		api.GET("/admissionApplications", s.handleListApplications())
		api.GET("/admissionApplication/:id", s.handleGetApplication())
		api.PUT("/admissionApplication/:id/status", s.handleUpdateStatus())
		api.PUT("/admissionApplication/:id/markAsRead", s.handleMarkAsRead())
		api.GET("/admissionApplication/:id/downloadPDF", s.handleApplicationPDF())
		api.GET("/admissionApplication/:id/downloadFiles", s.handleApplicationFiles())
		api.GET("/admitCard", s.handleAdmitCard())

		// メッセージ
		api.GET("/messages", s.handleListMessages())
		api.POST("/messages", s.handleSaveMessage())
		api.PUT("/messages/:id", s.handleSaveMessage())
		api.DELETE("/messages/:id", s.handleDelete(func(id string) bool { return deleteKey(s.messages, id) }))

		// シラバス
		api.GET("/syllabus", s.handleListSyllabi())
		api.POST("/syllabus", s.handleSaveSyllabus())
		api.PUT("/syllabus/:id", s.handleSaveSyllabus())
		api.DELETE("/syllabus/:id", s.handleDelete(func(id string) bool { return deleteKey(s.syllabi, id) }))

		// 試験日程
		api.GET("/datesheet", s.handleListDatesheets())
		api.POST("/datesheet", s.handleSaveDatesheet())
		api.PUT("/datesheet/:id", s.handleSaveDatesheet())
		api.DELETE("/datesheet/:id", s.handleDelete(func(id string) bool { return deleteKey(s.datesheets, id) }))

		// 問い合わせ
		api.GET("/contact", s.handleListContacts())
		api.DELETE("/contact/:id", s.handleDelete(func(id string) bool { return deleteKey(s.contacts, id) }))

		// ダッシュボード集計
		api.GET("/total-users", s.handleCount(func() int { return s.users }))
		api.GET("/total-contacts", s.handleCount(func() int { return len(s.contacts) }))
		api.GET("/total-datesheets", s.handleCount(func() int { return len(s.datesheets) }))
		api.GET("/total-messages", s.handleCount(func() int { return len(s.messages) }))
		api.GET("/total-applications", s.handleCount(func() int { return len(s.applications) }))
		api.GET("/total-syllabus", s.handleCount(func() int { return len(s.syllabi) }))
	}
}

// AddAdmin はログイン可能な管理者を登録する。
func (s *Server) AddAdmin(name, email, password string) Admin {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := Admin{ID: uuid.New().String(), Name: name, Email: email, Password: password}
	s.admins[email] = a
	return a
}

// AddApplication は入学申請を登録する。IDと作成日時が空の場合は補完する。
func (s *Server) AddApplication(a Application) Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.ApplicationStatus == "" {
		a.ApplicationStatus = "pending"
	}
	s.applications[a.ID] = &a
	return a
}

// AddContact は問い合わせを登録する。
func (s *Server) AddContact(c Contact) Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.contacts[c.ID] = &c
	return c
}

// SetUsers は登録ユーザー数を設定する。
func (s *Server) SetUsers(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = n
}

// Application は登録済みの入学申請を返す。
func (s *Server) Application(id string) (Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok {
		return Application{}, false
	}
	return *a, true
}

// Upload はアップロードされたファイルの中身をURLで引く。
func (s *Server) Upload(url string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.uploads[url]
	return b, ok
}

func (s *Server) handleLogin() gin.HandlerFunc {
	type loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "email and password are required"})
			return
		}

		s.mu.Lock()
		admin, ok := s.admins[req.Email]
		s.mu.Unlock()
		if !ok || admin.Password != req.Password {
			c.JSON(http.StatusOK, gin.H{"success": false, "msg": "Invalid credentials"})
			return
		}

		token, err := IssueToken(s.jwtSecret, admin.ID, admin.Email, time.Hour)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"result":  gin.H{"token": token, "admin": admin},
			"message": "Successfully login admin",
		})
	}
}

func (s *Server) handleListApplications() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = 10
		}

		s.mu.Lock()
		all := make([]Application, 0, len(s.applications))
		for _, a := range s.applications {
			all = append(all, *a)
		}
		s.mu.Unlock()
		// サーバー側は古い順に返す
		sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

		start := (page - 1) * limit
		end := start + limit
		if start > len(all) {
			start = len(all)
		}
		if end > len(all) {
			end = len(all)
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": all[start:end], "total": len(all)})
	}
}

func (s *Server) handleGetApplication() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := s.Application(c.Param("id"))
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": a})
	}
}

func (s *Server) handleUpdateStatus() gin.HandlerFunc {
	type statusRequest struct {
		ApplicationStatus string `json:"applicationStatus" binding:"required,oneof=pending approved rejected"`
	}
	return func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid application status"})
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		a, ok := s.applications[c.Param("id")]
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		a.ApplicationStatus = req.ApplicationStatus
		c.JSON(http.StatusOK, gin.H{"success": true, "data": a})
	}
}

func (s *Server) handleMarkAsRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		a, ok := s.applications[c.Param("id")]
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		a.IsRead = true
		c.JSON(http.StatusOK, gin.H{"success": true, "data": a})
	}
}

func (s *Server) handleApplicationPDF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := s.Application(c.Param("id")); !ok {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "application/pdf", samplePDF)
	}
}

func (s *Server) handleApplicationFiles() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := s.Application(c.Param("id")); !ok {
			c.Status(http.StatusNotFound)
			return
		}
		// 空のZIPアーカイブ（End of central directoryのみ）
		emptyZip := append([]byte("PK\x05\x06"), make([]byte, 18)...)
		c.Data(http.StatusOK, "application/zip", emptyZip)
	}
}

func (s *Server) handleAdmitCard() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := s.Application(c.Query("id"))
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		if a.ApplicationStatus != "approved" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Application is not approved"})
			return
		}
		c.Data(http.StatusOK, "application/pdf", samplePDF)
	}
}

func (s *Server) handleListMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		list := make([]Message, 0, len(s.messages))
		for _, m := range s.messages {
			list = append(list, *m)
		}
		s.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
	}
}

func (s *Server) handleSaveMessage() gin.HandlerFunc {
	type messageRequest struct {
		Title          string `json:"title" binding:"required"`
		Content        string `json:"content" binding:"required"`
		SentBy         string `json:"sentBy" binding:"required"`
		TargetAudience string `json:"targetAudience" binding:"required"`
	}
	return func(c *gin.Context) {
		var req messageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "All fields are required"})
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		id := c.Param("id")
		status := http.StatusOK
		m, ok := s.messages[id]
		if id != "" && !ok {
			c.Status(http.StatusNotFound)
			return
		}
		if !ok {
			m = &Message{ID: uuid.New().String(), SentAt: time.Now().UTC()}
			s.messages[m.ID] = m
			status = http.StatusCreated
		}
		m.Title, m.Content, m.SentBy, m.TargetAudience = req.Title, req.Content, req.SentBy, req.TargetAudience
		c.JSON(status, gin.H{"success": true, "data": m})
	}
}

func (s *Server) handleListSyllabi() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		list := make([]Syllabus, 0, len(s.syllabi))
		for _, v := range s.syllabi {
			list = append(list, *v)
		}
		s.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
	}
}

func (s *Server) handleSaveSyllabus() gin.HandlerFunc {
	return func(c *gin.Context) {
		class := c.PostForm("class")
		if class == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Class is required"})
			return
		}
		content, err := readPDF(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		id := c.Param("id")
		status := http.StatusOK
		v, ok := s.syllabi[id]
		if id != "" && !ok {
			c.Status(http.StatusNotFound)
			return
		}
		if !ok {
			v = &Syllabus{ID: uuid.New().String(), CreatedAt: time.Now().UTC()}
			s.syllabi[v.ID] = v
			status = http.StatusCreated
		}
		v.Class = class
		v.PDFURL = fmt.Sprintf("/uploads/syllabus/%s.pdf", v.ID)
		s.uploads[v.PDFURL] = content
		c.JSON(status, gin.H{"success": true, "data": v})
	}
}

func (s *Server) handleListDatesheets() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		list := make([]Datesheet, 0, len(s.datesheets))
		for _, v := range s.datesheets {
			list = append(list, *v)
		}
		s.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
	}
}

func (s *Server) handleSaveDatesheet() gin.HandlerFunc {
	return func(c *gin.Context) {
		examName, year, class := c.PostForm("examName"), c.PostForm("year"), c.PostForm("class")
		if examName == "" || year == "" || class == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "examName, year and class are required"})
			return
		}
		content, err := readPDF(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		id := c.Param("id")
		status := http.StatusOK
		v, ok := s.datesheets[id]
		if id != "" && !ok {
			c.Status(http.StatusNotFound)
			return
		}
		if !ok {
			v = &Datesheet{ID: uuid.New().String(), CreatedAt: time.Now().UTC()}
			s.datesheets[v.ID] = v
			status = http.StatusCreated
		}
		v.ExamName, v.Year, v.Class = examName, year, class
		v.PDF = fmt.Sprintf("/uploads/datesheet/%s.pdf", v.ID)
		s.uploads[v.PDF] = content
		c.JSON(status, gin.H{"success": true, "data": v})
	}
}

func (s *Server) handleListContacts() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		list := make([]Contact, 0, len(s.contacts))
		for _, v := range s.contacts {
			list = append(list, *v)
		}
		s.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
	}
}

// handleDelete はIDで指定したレコードを削除するハンドラを返す。
// delはロック取得後に呼ばれる。
func (s *Server) handleDelete(del func(id string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !del(c.Param("id")) {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Deleted successfully"})
	}
}

func (s *Server) handleCount(count func() int) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		n := count()
		s.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"success": true, "count": n})
	}
}

func deleteKey[V any](m map[string]V, id string) bool {
	if _, ok := m[id]; !ok {
		return false
	}
	delete(m, id)
	return true
}

// readPDF はmultipartのpdfフィールドを読み出す。
func readPDF(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("pdf")
	if err != nil {
		return nil, fmt.Errorf("PDF file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
