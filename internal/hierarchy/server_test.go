package hierarchy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/client"
	"github.com/stemsi/courseware/internal/model"
)

// fakeServer is an in-memory courseware API speaking the real envelope.
type fakeServer struct {
	t  *testing.T
	mu sync.Mutex

	nextID   int64
	courses  map[int64]model.Course
	batches  map[int64]model.Batch
	folders  map[int64]model.Folder
	files    map[int64]model.File
	students map[int64]model.Student
	roster   map[int64]map[int64]bool

	calls map[string]int

	// folderGate, when set for a batch, holds its folder list response until
	// the channel is closed. folderArrived is signalled first.
	folderGate    map[int64]chan struct{}
	folderArrived chan int64

	// rawFolders overrides the data field of folder list responses.
	rawFolders string
	// failNext makes the next matching "METHOD /path" answer with success=false.
	failNext map[string]string
}

func newFakeServer(t *testing.T) *fakeServer {
	return &fakeServer{
		t:             t,
		courses:       map[int64]model.Course{},
		batches:       map[int64]model.Batch{},
		folders:       map[int64]model.Folder{},
		files:         map[int64]model.File{},
		students:      map[int64]model.Student{},
		roster:        map[int64]map[int64]bool{},
		calls:         map[string]int{},
		folderGate:    map[int64]chan struct{}{},
		folderArrived: make(chan int64, 4),
		failNext:      map[string]string{},
	}
}

func (s *fakeServer) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeServer) addCourse(title string) model.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := model.Course{ID: s.id(), Title: title}
	s.courses[c.ID] = c
	return c
}

func (s *fakeServer) addBatch(courseID int64, name string) model.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := model.Batch{ID: s.id(), CourseID: courseID, Name: name}
	s.batches[b.ID] = b
	return b
}

func (s *fakeServer) addFolder(batchID int64, name string, parent *model.Folder) model.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := model.Folder{ID: s.id(), BatchID: batchID, Name: name}
	if parent != nil {
		f.Parent = &model.FolderRef{ID: parent.ID, Name: parent.Name}
	}
	s.folders[f.ID] = f
	return f
}

func (s *fakeServer) addStudent(email string) model.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := model.Student{ID: s.id(), Email: email, FirstName: strings.Split(email, "@")[0]}
	s.students[st.ID] = st
	return st
}

func (s *fakeServer) enroll(batchID, studentID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roster[batchID] == nil {
		s.roster[batchID] = map[int64]bool{}
	}
	s.roster[batchID][studentID] = true
}

func (s *fakeServer) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

func (s *fakeServer) totalMutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for k, v := range s.calls {
		if !strings.HasPrefix(k, "GET ") {
			total += v
		}
	}
	return total
}

// ─── Wiring ─────────────────────────────────────────────────────────

func (s *fakeServer) start() *client.Client {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/courses", s.listCourses)
	mux.HandleFunc("POST /api/v1/courses", s.createCourse)
	mux.HandleFunc("PUT /api/v1/courses/{id}", s.updateCourse)
	mux.HandleFunc("DELETE /api/v1/courses/{id}", s.deleteCourse)
	mux.HandleFunc("GET /api/v1/courses/{id}/batches", s.listBatches)
	mux.HandleFunc("POST /api/v1/courses/{id}/batches", s.createBatch)
	mux.HandleFunc("GET /api/v1/batches/{id}/folders", s.listFolders)
	mux.HandleFunc("POST /api/v1/folders", s.createFolder)
	mux.HandleFunc("PATCH /api/v1/folders/{id}", s.renameFolder)
	mux.HandleFunc("DELETE /api/v1/folders/{id}", s.deleteFolder)
	mux.HandleFunc("GET /api/v1/folders/{id}/files", s.listFiles)
	mux.HandleFunc("POST /api/v1/folders/{id}/files", s.uploadFile)
	mux.HandleFunc("GET /api/v1/courses/{cid}/batches/{bid}/students", s.listMembers)
	mux.HandleFunc("POST /api/v1/courses/{cid}/batches/{bid}/students", s.addMember)
	mux.HandleFunc("DELETE /api/v1/courses/{cid}/batches/{bid}/students/{member}", s.removeMember)
	mux.HandleFunc("GET /api/v1/admin/students", s.listStudents)

	counted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		msg, fail := s.failNext[key]
		delete(s.failNext, key)
		s.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "message": msg})
			return
		}
		mux.ServeHTTP(w, r)
	})

	srv := httptest.NewServer(counted)
	s.t.Cleanup(srv.Close)
	return client.New(srv.URL)
}

func newTestNavigator(t *testing.T) (*fakeServer, *Navigator, *[]Notification) {
	t.Helper()
	srv := newFakeServer(t)
	api := srv.start()

	var mu sync.Mutex
	notes := &[]Notification{}
	nav := New(api, NotifierFunc(func(n Notification) {
		mu.Lock()
		*notes = append(*notes, n)
		mu.Unlock()
	}), zerolog.Nop())
	return srv, nav, notes
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{"success": true, "data": data})
}

func done(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "ok"})
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]interface{}{
		"success": false,
		"error":   map[string]string{"code": "NOT_FOUND", "message": "Data tidak ditemukan."},
	})
}

func pathID(r *http.Request, name string) int64 {
	v, _ := strconv.ParseInt(r.PathValue(name), 10, 64)
	return v
}

func sortedByID[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// ─── Handlers ───────────────────────────────────────────────────────

func (s *fakeServer) listCourses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok(w, http.StatusOK, sortedByID(s.courses, func(model.Course) bool { return true }))
}

func (s *fakeServer) createCourse(w http.ResponseWriter, r *http.Request) {
	var req model.CourseRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	c := model.Course{ID: s.id(), Title: req.Title, Description: req.Description}
	s.courses[c.ID] = c
	ok(w, http.StatusCreated, c)
}

func (s *fakeServer) updateCourse(w http.ResponseWriter, r *http.Request) {
	var req model.CourseRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, found := s.courses[pathID(r, "id")]
	if !found {
		notFound(w)
		return
	}
	c.Title, c.Description = req.Title, req.Description
	s.courses[c.ID] = c
	ok(w, http.StatusOK, c)
}

func (s *fakeServer) deleteCourse(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r, "id")
	if _, found := s.courses[id]; !found {
		notFound(w)
		return
	}
	delete(s.courses, id)
	for bid, b := range s.batches {
		if b.CourseID == id {
			delete(s.batches, bid)
		}
	}
	done(w)
}

func (s *fakeServer) listBatches(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r, "id")
	ok(w, http.StatusOK, sortedByID(s.batches, func(b model.Batch) bool { return b.CourseID == id }))
}

func (s *fakeServer) createBatch(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBatchRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	b := model.Batch{ID: s.id(), CourseID: pathID(r, "id"), Name: req.Name}
	s.batches[b.ID] = b
	ok(w, http.StatusCreated, b)
}

func (s *fakeServer) listFolders(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")

	s.mu.Lock()
	gate := s.folderGate[id]
	s.mu.Unlock()
	if gate != nil {
		s.folderArrived <- id
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rawFolders != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":`+s.rawFolders+`}`)
		return
	}
	ok(w, http.StatusOK, sortedByID(s.folders, func(f model.Folder) bool { return f.BatchID == id }))
}

func (s *fakeServer) createFolder(w http.ResponseWriter, r *http.Request) {
	var req model.CreateFolderRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	f := model.Folder{ID: s.id(), BatchID: req.BatchID, Name: req.Name}
	if req.ParentID != nil {
		parent := s.folders[*req.ParentID]
		f.Parent = &model.FolderRef{ID: parent.ID, Name: parent.Name}
	}
	s.folders[f.ID] = f
	ok(w, http.StatusCreated, f)
}

func (s *fakeServer) renameFolder(w http.ResponseWriter, r *http.Request) {
	var req model.RenameFolderRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	f, found := s.folders[pathID(r, "id")]
	if !found {
		notFound(w)
		return
	}
	f.Name = req.Name
	s.folders[f.ID] = f
	done(w)
}

func (s *fakeServer) deleteFolder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r, "id")
	if _, found := s.folders[id]; !found {
		notFound(w)
		return
	}
	queue := []int64{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for fid, f := range s.folders {
			if f.ParentID() == cur {
				queue = append(queue, fid)
			}
		}
		delete(s.folders, cur)
	}
	done(w)
}

func (s *fakeServer) listFiles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r, "id")
	ok(w, http.StatusOK, sortedByID(s.files, func(f model.File) bool { return f.FolderID == id }))
}

func (s *fakeServer) uploadFile(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false})
		return
	}
	defer file.Close()
	size, _ := io.Copy(io.Discard, file)

	s.mu.Lock()
	defer s.mu.Unlock()
	f := model.File{ID: s.id(), FolderID: pathID(r, "id"), Name: header.Filename, SizeBytes: size}
	s.files[f.ID] = f
	ok(w, http.StatusCreated, f)
}

func (s *fakeServer) listMembers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.roster[pathID(r, "bid")]
	ok(w, http.StatusOK, sortedByID(s.students, func(st model.Student) bool { return members[st.ID] }))
}

func (s *fakeServer) addMember(w http.ResponseWriter, r *http.Request) {
	var req model.AddMemberRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	bid := pathID(r, "bid")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.students {
		if !strings.EqualFold(st.Email, req.Email) {
			continue
		}
		if s.roster[bid][st.ID] {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": false,
				"message": "Siswa sudah terdaftar di batch ini.",
				"error":   map[string]string{"code": "ALREADY_IN_BATCH", "message": "Siswa sudah terdaftar di batch ini."},
			})
			return
		}
		if s.roster[bid] == nil {
			s.roster[bid] = map[int64]bool{}
		}
		s.roster[bid][st.ID] = true
		ok(w, http.StatusCreated, st)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]interface{}{
		"success": false,
		"error":   map[string]string{"code": "STUDENT_NOT_FOUND", "message": "Siswa tidak ditemukan."},
	})
}

func (s *fakeServer) removeMember(w http.ResponseWriter, r *http.Request) {
	member := r.PathValue("member")
	bid := pathID(r, "bid")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.students {
		if strings.EqualFold(st.Email, member) || strconv.FormatInt(st.ID, 10) == member {
			if !s.roster[bid][st.ID] {
				notFound(w)
				return
			}
			delete(s.roster[bid], st.ID)
			done(w)
			return
		}
	}
	notFound(w)
}

func (s *fakeServer) listStudents(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	s.mu.Lock()
	defer s.mu.Unlock()
	ok(w, http.StatusOK, sortedByID(s.students, func(st model.Student) bool {
		return q == "" || strings.Contains(strings.ToLower(st.Email), q)
	}))
}
