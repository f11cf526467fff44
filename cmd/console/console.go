package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/client"
	"github.com/stemsi/courseware/internal/hierarchy"
	"github.com/stemsi/courseware/internal/model"
	"golang.org/x/term"
)

// Console is a line-oriented operator shell over the navigator.
type Console struct {
	api *client.Client
	nav *hierarchy.Navigator
	log zerolog.Logger

	in  io.Reader
	out io.Writer
	mu  sync.Mutex // serializes writes to out

	next  chan struct{}
	lines chan string

	watchCancel context.CancelFunc
}

func NewConsole(api *client.Client, in io.Reader, out io.Writer, log zerolog.Logger) *Console {
	c := &Console{
		api:   api,
		log:   log,
		in:    in,
		out:   out,
		next:  make(chan struct{}),
		lines: make(chan string),
	}
	c.nav = hierarchy.New(api, c, log)
	return c
}

// Notify prints navigator notifications and mirrors them to the log.
func (c *Console) Notify(n hierarchy.Notification) {
	switch n.Level {
	case hierarchy.LevelError:
		c.printf("✗ %s: %s\n", n.Title, n.Detail)
		c.log.Debug().Str("detail", n.Detail).Msg(n.Title)
	case hierarchy.LevelSuccess:
		if n.Detail != "" {
			c.printf("✓ %s: %s\n", n.Title, n.Detail)
		} else {
			c.printf("✓ %s\n", n.Title)
		}
	default:
		c.printf("· %s %s\n", n.Title, n.Detail)
	}
}

// inline prints rejected local input. Server failures already arrive
// through Notify.
func (c *Console) inline(err error) {
	if !errors.Is(err, hierarchy.ErrInvalidInput) {
		return
	}
	detail := strings.TrimPrefix(err.Error(), hierarchy.ErrInvalidInput.Error()+": ")
	c.printf("✗ Invalid input: %s\n", detail)
}

func (c *Console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// scan reads one line per request on next so that nothing else competes
// for stdin while a command runs.
func (c *Console) scan() {
	scanner := bufio.NewScanner(c.in)
	for range c.next {
		if !scanner.Scan() {
			close(c.lines)
			return
		}
		c.lines <- scanner.Text()
	}
}

func (c *Console) readLine(ctx context.Context) (string, bool) {
	select {
	case c.next <- struct{}{}:
	case <-ctx.Done():
		return "", false
	}
	select {
	case line, ok := <-c.lines:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

func (c *Console) Run(ctx context.Context) error {
	go c.scan()
	defer c.stopWatch()

	c.printf("Courseware console. Connected to %s\n", c.api.BaseURL())
	c.printf("Type 'help' to get full list of commands.\n")
	if c.api.Token() != "" {
		c.whoami(ctx)
	}
	_ = c.nav.RefreshCourses(ctx)

	for {
		c.printf("%s> ", c.prompt())
		line, ok := c.readLine(ctx)
		if !ok {
			c.printf("\nBye!\n")
			return nil
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}
		command, args := parts[0], parts[1:]
		rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), command))

		c.log.Debug().Str("command", command).Msg("Running command")
		switch command {
		case "help", "?":
			c.printHelp()
		case "quit", "exit", "q":
			c.printf("Bye!\n")
			return nil

		case "login":
			c.handleLogin(ctx, args)
		case "logout":
			c.handleLogout(ctx)
		case "whoami":
			c.whoami(ctx)
		case "dashboard":
			c.handleDashboard(ctx)

		case "courses":
			if c.nav.RefreshCourses(ctx) == nil {
				c.listCourses()
			}
		case "course":
			c.handleSelectCourse(ctx, args)
		case "course-add":
			title, desc := splitPipe(rest)
			_, err := c.nav.CreateCourse(ctx, title, desc)
			c.inline(err)
		case "course-edit":
			c.handleEditCourse(ctx, args, rest)
		case "course-rm":
			c.handleDeleteCourse(ctx, args)

		case "batches":
			c.listBatches()
		case "batch":
			c.handleSelectBatch(ctx, args)
		case "batch-add":
			_, err := c.nav.CreateBatch(ctx, rest)
			c.inline(err)

		case "ls":
			c.listContents()
		case "pwd":
			c.printf("%s\n", c.prompt())
		case "cd":
			c.handleCd(ctx, args)
		case "mkdir":
			_, err := c.nav.CreateFolder(ctx, rest)
			c.inline(err)
		case "mv":
			c.handleRename(ctx, args, rest)
		case "rm":
			c.handleDeleteFolder(ctx, args)
		case "upload":
			c.handleUpload(ctx, rest)

		case "students":
			if c.nav.LoadStudents(ctx, rest) == nil {
				c.listStudents(c.nav.Students())
			}
		case "roster":
			c.listStudents(c.nav.Roster())
		case "enroll":
			c.handleEnroll(ctx, args)
		case "unenroll":
			c.handleUnenroll(ctx, args)

		case "refresh":
			_ = c.nav.Refresh(ctx)
		case "watch":
			c.handleWatch(ctx, args)

		default:
			c.printf("Unexpected command: %s. Type 'help' to get full list of commands.\n", command)
		}
	}
}

func (c *Console) printHelp() {
	c.printf(`Available commands:
  login <email>                  - Sign in (password is prompted)
  logout | whoami                - End the session | show the signed-in account
  dashboard                      - Totals and latest uploads
  courses                        - List courses
  course <id>                    - Select a course
  course-add <title> [| desc]    - Create a course
  course-edit <id> <title> [| desc]
  course-rm <id>                 - Delete a course with everything in it
  batches | batch <id>           - List | select batches of the course
  batch-add <name>               - Create a batch in the course
  ls                             - Show folders and files at the current level
  pwd                            - Show the breadcrumb
  cd <folder_id> | .. | / | ~    - Open a folder | go up | batch root | home
  mkdir <name>                   - Create a folder here
  mv <folder_id> <new name>      - Rename a folder
  rm <folder_id>                 - Delete a folder and everything below it
  upload <path>                  - Upload a local file into the open folder
  students [query]               - Search the student directory
  roster                         - Show students in the batch
  enroll <student_id>...         - Add students to the batch
  unenroll <student_id>          - Remove a student from the batch
  refresh                        - Reload everything on screen
  watch [off]                    - Follow live changes in the batch
  help | quit
`)
}

// prompt renders the breadcrumb: course / batch / folder / folder.
func (c *Console) prompt() string {
	course, ok := c.nav.Course()
	if !ok {
		return "courseware"
	}
	parts := []string{course.Title}
	if batch, ok := c.nav.Batch(); ok {
		parts = append(parts, batch.Name)
	}
	for _, f := range c.nav.Path() {
		parts = append(parts, f.Name)
	}
	return strings.Join(parts, " / ")
}

// ─── Session ────────────────────────────────────────────────────────

func (c *Console) handleLogin(ctx context.Context, args []string) {
	if len(args) != 1 {
		c.printf("Usage: login <email>\n")
		return
	}
	password, err := c.readPassword(ctx)
	if err != nil {
		c.printf("Error reading password: %v\n", err)
		return
	}

	resp, err := c.api.Login(ctx, args[0], password)
	if err != nil {
		c.printf("Login failed: %s\n", client.Message(err))
		return
	}
	c.printf("Signed in as %s (%s)\n", resp.Admin.Name, resp.Admin.Role)
}

func (c *Console) readPassword(ctx context.Context) (string, error) {
	c.printf("Password: ")
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		c.printf("\n")
		return string(b), err
	}
	line, ok := c.readLine(ctx)
	if !ok {
		return "", io.EOF
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) handleLogout(ctx context.Context) {
	if err := c.api.Logout(ctx); err != nil {
		c.printf("Logout failed: %s\n", client.Message(err))
		return
	}
	c.printf("Signed out\n")
}

func (c *Console) whoami(ctx context.Context) {
	resp, err := c.api.Me(ctx)
	if err != nil {
		c.printf("Not signed in: %s\n", client.Message(err))
		return
	}
	perms := make([]string, len(resp.Permissions))
	for i, p := range resp.Permissions {
		perms[i] = string(p)
	}
	c.printf("%s <%s> role=%s permissions=%s\n", resp.Admin.Name, resp.Admin.Email, resp.Admin.Role, strings.Join(perms, ","))
}

func (c *Console) handleDashboard(ctx context.Context) {
	d, err := c.api.Dashboard(ctx)
	if err != nil {
		c.printf("Dashboard unavailable: %s\n", client.Message(err))
		return
	}
	c.printf("Courses %d · Batches %d · Students %d · Enrollments %d\n",
		d.TotalCourses, d.TotalBatches, d.TotalStudents, d.TotalEnrollments)
	c.printf("Folders %d · Files %d · Storage %s\n", d.TotalFolders, d.TotalFiles, humanSize(d.StorageBytes))
	if len(d.RecentUploads) > 0 {
		c.printf("Latest uploads:\n")
	}
	for _, u := range d.RecentUploads {
		c.printf("  %s  %s / %s / %s  (%s)\n",
			u.CreatedAt.Local().Format("2006-01-02 15:04"), u.CourseTitle, u.BatchName, u.Name, humanSize(u.SizeBytes))
	}
}

// ─── Courses and Batches ────────────────────────────────────────────

func (c *Console) listCourses() {
	courses := c.nav.Courses()
	if len(courses) == 0 {
		c.printf("No courses.\n")
		return
	}
	for _, course := range courses {
		c.printf("  %4d  %s\n", course.ID, course.Title)
	}
}

func (c *Console) handleSelectCourse(ctx context.Context, args []string) {
	id, ok := c.argID(args, "course <id>")
	if !ok {
		return
	}
	for _, course := range c.nav.Courses() {
		if course.ID == id {
			if c.nav.SelectCourse(ctx, course) == nil {
				c.listBatches()
			}
			return
		}
	}
	c.printf("Course %d is not in the list. Run 'courses' to reload.\n", id)
}

func (c *Console) handleEditCourse(ctx context.Context, args []string, rest string) {
	id, ok := c.argID(args, "course-edit <id> <title> [| description]")
	if !ok {
		return
	}
	title, desc := splitPipe(strings.TrimSpace(strings.TrimPrefix(rest, args[0])))
	_, err := c.nav.UpdateCourse(ctx, id, title, desc)
	c.inline(err)
}

func (c *Console) handleDeleteCourse(ctx context.Context, args []string) {
	id, ok := c.argID(args, "course-rm <id>")
	if !ok {
		return
	}
	if !c.confirm(ctx, fmt.Sprintf("Delete course %d with all batches, folders and files?", id)) {
		return
	}
	c.inline(c.nav.DeleteCourse(ctx, id))
}

func (c *Console) listBatches() {
	if _, ok := c.nav.Course(); !ok {
		c.printf("Select a course first.\n")
		return
	}
	batches := c.nav.Batches()
	if len(batches) == 0 {
		c.printf("No batches.\n")
		return
	}
	for _, b := range batches {
		c.printf("  %4d  %s\n", b.ID, b.Name)
	}
}

func (c *Console) handleSelectBatch(ctx context.Context, args []string) {
	id, ok := c.argID(args, "batch <id>")
	if !ok {
		return
	}
	for _, b := range c.nav.Batches() {
		if b.ID == id {
			if err := c.nav.SelectBatch(ctx, b); err != nil && !errors.As(err, new(*client.APIError)) {
				c.printf("%v\n", err)
				return
			}
			c.listContents()
			return
		}
	}
	c.printf("Batch %d is not in this course.\n", id)
}

// ─── Folders and Files ──────────────────────────────────────────────

func (c *Console) listContents() {
	if _, ok := c.nav.Batch(); !ok {
		c.printf("Select a batch first.\n")
		return
	}
	folders := c.nav.VisibleFolders()
	for _, f := range folders {
		c.printf("  %4d  %s/\n", f.ID, f.Name)
	}
	files := c.nav.Files()
	for _, f := range files {
		c.printf("  %4d  %s  (%s)  %s\n", f.ID, f.Name, humanSize(f.SizeBytes), f.URL)
	}
	if len(folders) == 0 && len(files) == 0 {
		c.printf("  (empty)\n")
	}
}

func (c *Console) handleCd(ctx context.Context, args []string) {
	if len(args) != 1 {
		c.printf("Usage: cd <folder_id> | .. | / | ~\n")
		return
	}

	var err error
	switch args[0] {
	case "~":
		err = c.nav.NavigateTo(ctx, hierarchy.TargetHome, nil)
	case "/":
		err = c.nav.NavigateTo(ctx, hierarchy.TargetBatch, nil)
	case "..":
		path := c.nav.Path()
		switch len(path) {
		case 0:
			err = c.nav.NavigateTo(ctx, hierarchy.TargetCourse, nil)
		case 1:
			err = c.nav.NavigateTo(ctx, hierarchy.TargetBatch, nil)
		default:
			parent := path[len(path)-2]
			err = c.nav.NavigateTo(ctx, hierarchy.TargetFolder, &parent)
		}
	default:
		id, perr := strconv.ParseInt(args[0], 10, 64)
		if perr != nil {
			c.printf("Invalid folder id %q\n", args[0])
			return
		}
		folder, found := findFolder(c.nav.Folders(), id)
		if !found {
			c.printf("Folder %d is not in this batch.\n", id)
			return
		}
		err = c.nav.OpenFolder(ctx, folder)
	}

	if err != nil && !errors.As(err, new(*client.APIError)) {
		c.printf("%v\n", err)
		return
	}
	c.listContents()
}

func (c *Console) handleRename(ctx context.Context, args []string, rest string) {
	id, ok := c.argID(args, "mv <folder_id> <new name>")
	if !ok {
		return
	}
	c.inline(c.nav.RenameFolder(ctx, id, strings.TrimSpace(strings.TrimPrefix(rest, args[0]))))
}

func (c *Console) handleDeleteFolder(ctx context.Context, args []string) {
	id, ok := c.argID(args, "rm <folder_id>")
	if !ok {
		return
	}
	if !c.confirm(ctx, fmt.Sprintf("Delete folder %d and everything below it?", id)) {
		return
	}
	c.inline(c.nav.DeleteFolder(ctx, id))
}

func (c *Console) handleUpload(ctx context.Context, path string) {
	if path == "" {
		c.printf("Usage: upload <path>\n")
		return
	}
	f, err := os.Open(path)
	if err != nil {
		c.printf("Cannot open %s: %v\n", path, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		c.printf("Cannot stat %s: %v\n", path, err)
		return
	}

	start := time.Now()
	lastPct := -1
	file, err := c.nav.UploadFile(ctx, filepath.Base(path), f, info.Size(), func(sent, total int64) {
		if total <= 0 {
			return
		}
		if pct := int(sent * 100 / total); pct/10 != lastPct/10 {
			lastPct = pct
			c.printf("  %3d%%\n", pct)
		}
	})
	if err != nil {
		c.inline(err)
		return
	}
	c.printf("Uploaded %s (%s) in %v\n", file.Name, humanSize(file.SizeBytes), time.Since(start).Round(time.Millisecond))
}

// ─── Roster ─────────────────────────────────────────────────────────

func (c *Console) listStudents(students []model.Student) {
	if len(students) == 0 {
		c.printf("No students.\n")
		return
	}
	for _, s := range students {
		c.printf("  %4d  %-28s %s\n", s.ID, s.DisplayName(), s.Email)
	}
}

func (c *Console) handleEnroll(ctx context.Context, args []string) {
	ids, err := parseIDs(args)
	if err != nil || len(ids) == 0 {
		c.printf("Usage: enroll <student_id>...\n")
		return
	}
	// Make sure the directory knows every id before translating to email.
	if c.nav.Directory().Len() == 0 {
		_ = c.nav.LoadStudents(ctx, "")
	}
	res, err := c.nav.AddStudents(ctx, ids)
	c.inline(err)
	if res.Skipped > 0 {
		c.printf("%d already enrolled\n", res.Skipped)
	}
}

func (c *Console) handleUnenroll(ctx context.Context, args []string) {
	id, ok := c.argID(args, "unenroll <student_id>")
	if !ok {
		return
	}
	c.inline(c.nav.RemoveStudent(ctx, id))
}

// ─── Live Updates ───────────────────────────────────────────────────

func (c *Console) handleWatch(ctx context.Context, args []string) {
	if len(args) == 1 && args[0] == "off" {
		c.stopWatch()
		c.printf("Stopped watching\n")
		return
	}
	if _, ok := c.nav.Batch(); !ok {
		c.printf("Select a batch first.\n")
		return
	}

	c.stopWatch()
	watchCtx, cancel := context.WithCancel(ctx)
	c.watchCancel = cancel
	go func() {
		if err := c.nav.Watch(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
			c.log.Warn().Err(err).Msg("Watch ended")
		}
	}()
	c.printf("Watching for changes. 'watch off' to stop.\n")
}

func (c *Console) stopWatch() {
	if c.watchCancel != nil {
		c.watchCancel()
		c.watchCancel = nil
	}
}

// ─── Helpers ────────────────────────────────────────────────────────

func (c *Console) argID(args []string, usage string) (int64, bool) {
	if len(args) == 0 {
		c.printf("Usage: %s\n", usage)
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		c.printf("Invalid id %q\n", args[0])
		return 0, false
	}
	return id, true
}

func (c *Console) confirm(ctx context.Context, question string) bool {
	c.printf("%s [y/N] ", question)
	line, ok := c.readLine(ctx)
	if !ok {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// splitPipe splits "title | description".
func splitPipe(s string) (string, string) {
	left, right, _ := strings.Cut(s, "|")
	return strings.TrimSpace(left), strings.TrimSpace(right)
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func findFolder(folders []model.Folder, id int64) (model.Folder, bool) {
	for _, f := range folders {
		if f.ID == id {
			return f, true
		}
	}
	return model.Folder{}, false
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
