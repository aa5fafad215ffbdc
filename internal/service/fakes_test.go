package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/config"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

// newTxProviderMock returns a provider whose transactions must follow the
// expectations the test registers on mock.
func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock"), mock: mock}, mock
}

func (p *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return p.db.BeginTxx(ctx, opts)
}

// autoTxProvider accepts any number of transactions, each ending in either
// commit or rollback. Stores in these tests ignore the tx handle.
type autoTxProvider struct {
	txProviderMock
	mu sync.Mutex
}

func newAutoTxProvider(t *testing.T) *autoTxProvider {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	t.Cleanup(func() { db.Close() })
	return &autoTxProvider{txProviderMock: txProviderMock{db: sqlx.NewDb(db, "sqlmock"), mock: mock}}
}

func (p *autoTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	p.mu.Lock()
	p.mock.ExpectBegin()
	p.mock.ExpectCommit()
	p.mock.ExpectRollback()
	p.mu.Unlock()
	return p.db.BeginTxx(ctx, opts)
}

type meetingRow struct {
	offeringID string
	slot       models.TimeSlot
	room       string
}

type sentNotification struct {
	userID  string
	kind    string
	payload map[string]interface{}
}

// memoryWorld is an in-memory registration database shared by the store fakes.
type memoryWorld struct {
	mu          sync.Mutex
	seq         int
	offerings   map[string]*models.OfferingDetail
	enrollments map[string]*models.Enrollment
	students    map[string]*models.StudentProfile
	instructors map[string]*models.Instructor
	transcripts map[int64]*models.Transcript
	nextRow     int64
	carts       map[string]*models.Cart
	cartItems   []*models.CartItem
	slots       map[string]meetingRow
	configs     map[string]models.Configuration
	audits      []models.AuditLog
	sent        []sentNotification

	failEnroll map[string]error
}

func newMemoryWorld() *memoryWorld {
	return &memoryWorld{
		offerings:   map[string]*models.OfferingDetail{},
		enrollments: map[string]*models.Enrollment{},
		students:    map[string]*models.StudentProfile{},
		instructors: map[string]*models.Instructor{},
		transcripts: map[int64]*models.Transcript{},
		carts:       map[string]*models.Cart{},
		slots:       map[string]meetingRow{},
		configs:     map[string]models.Configuration{},
		failEnroll:  map[string]error{},
	}
}

func (w *memoryWorld) nextID(prefix string) string {
	w.seq++
	return fmt.Sprintf("%s-%d", prefix, w.seq)
}

func (w *memoryWorld) addStudent(id, userID string) {
	w.students[id] = &models.StudentProfile{ID: id, UserID: userID, StudentNumber: "N" + id, FullName: "Student " + id}
}

func (w *memoryWorld) addOffering(id, courseID, section string, credits, seats int, term models.Term) {
	w.offerings[id] = &models.OfferingDetail{
		Offering: models.Offering{
			ID:             id,
			CourseID:       courseID,
			SectionCode:    section,
			Semester:       term.Semester,
			Year:           term.Year,
			Capacity:       seats,
			AvailableSeats: seats,
		},
		CourseCode:  courseID,
		CourseName:  "Course " + courseID,
		CreditHours: credits,
	}
}

func (w *memoryWorld) addSlot(id, offeringID string, ts models.TimeSlot) {
	ts.ID = "ts-" + id
	w.slots[id] = meetingRow{offeringID: offeringID, slot: ts, room: "Room " + id}
}

func (w *memoryWorld) seats(offeringID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.offerings[offeringID].AvailableSeats
}

func (w *memoryWorld) enrollment(id string) models.Enrollment {
	w.mu.Lock()
	defer w.mu.Unlock()
	return *w.enrollments[id]
}

func (w *memoryWorld) transcriptRows(studentID string) []models.Transcript {
	w.mu.Lock()
	defer w.mu.Unlock()
	var rows []models.Transcript
	for _, row := range w.transcripts {
		if row.StudentID == studentID {
			rows = append(rows, *row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func (w *memoryWorld) detail(e *models.Enrollment) models.EnrollmentDetail {
	o := w.offerings[e.OfferingID]
	d := models.EnrollmentDetail{Enrollment: *e}
	if o != nil {
		d.CourseID = o.CourseID
		d.CourseCode = o.CourseCode
		d.CourseName = o.CourseName
		d.CreditHours = o.CreditHours
		d.SectionCode = o.SectionCode
		d.Semester = o.Semester
		d.Year = o.Year
	}
	if s := w.students[e.StudentID]; s != nil {
		d.StudentName = s.FullName
	}
	return d
}

func (w *memoryWorld) sortedEnrollments() []*models.Enrollment {
	list := make([]*models.Enrollment, 0, len(w.enrollments))
	for _, e := range w.enrollments {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

type offeringFake struct{ w *memoryWorld }

func (f offeringFake) FindDetail(ctx context.Context, exec sqlx.QueryerContext, id string) (*models.OfferingDetail, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	o, ok := f.w.offerings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *o
	return &clone, nil
}

func (f offeringFake) LockForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.OfferingDetail, error) {
	return f.FindDetail(ctx, tx, id)
}

func (f offeringFake) ReserveSeat(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	o, ok := f.w.offerings[id]
	if !ok || o.AvailableSeats <= 0 {
		return false, nil
	}
	o.AvailableSeats--
	return true, nil
}

func (f offeringFake) ReleaseSeat(ctx context.Context, tx *sqlx.Tx, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	o, ok := f.w.offerings[id]
	if !ok {
		return fmt.Errorf("release seat: offering %s not found", id)
	}
	o.AvailableSeats++
	return nil
}

func (f offeringFake) ListMeetings(ctx context.Context, exec sqlx.QueryerContext, offeringIDs []string) ([]models.OfferingMeeting, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	wanted := make(map[string]bool, len(offeringIDs))
	for _, id := range offeringIDs {
		wanted[id] = true
	}
	var meetings []models.OfferingMeeting
	for _, row := range f.w.slots {
		if !wanted[row.offeringID] {
			continue
		}
		meetings = append(meetings, models.OfferingMeeting{
			OfferingID: row.offeringID,
			CourseName: f.w.offerings[row.offeringID].CourseName,
			DayOfWeek:  row.slot.DayOfWeek,
			StartTime:  row.slot.StartTime,
			EndTime:    row.slot.EndTime,
		})
	}
	return meetings, nil
}

type enrollmentFake struct{ w *memoryWorld }

func (f enrollmentFake) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var list []models.EnrollmentDetail
	for _, e := range f.w.sortedEnrollments() {
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		if filter.OfferingID != "" && e.OfferingID != filter.OfferingID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		list = append(list, f.w.detail(e))
	}
	return list, len(list), nil
}

func (f enrollmentFake) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	e, ok := f.w.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *e
	return &clone, nil
}

func (f enrollmentFake) FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Enrollment, error) {
	return f.FindByID(ctx, id)
}

func (f enrollmentFake) FindByStudentOfferingForUpdate(ctx context.Context, tx *sqlx.Tx, studentID, offeringID string) (*models.Enrollment, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, e := range f.w.enrollments {
		if e.StudentID == studentID && e.OfferingID == offeringID {
			clone := *e
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f enrollmentFake) ListActiveByStudent(ctx context.Context, exec sqlx.QueryerContext, studentID string) ([]models.EnrollmentDetail, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var list []models.EnrollmentDetail
	for _, e := range f.w.sortedEnrollments() {
		if e.StudentID == studentID && e.Status.IsActive() {
			list = append(list, f.w.detail(e))
		}
	}
	return list, nil
}

func (f enrollmentFake) ListByStudent(ctx context.Context, exec sqlx.QueryerContext, studentID string) ([]models.EnrollmentDetail, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var list []models.EnrollmentDetail
	for _, e := range f.w.sortedEnrollments() {
		if e.StudentID == studentID {
			list = append(list, f.w.detail(e))
		}
	}
	return list, nil
}

func (f enrollmentFake) Create(ctx context.Context, tx *sqlx.Tx, enrollment *models.Enrollment) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.failEnroll[enrollment.OfferingID]; err != nil {
		return err
	}
	for _, e := range f.w.enrollments {
		if e.StudentID == enrollment.StudentID && e.OfferingID == enrollment.OfferingID {
			return fmt.Errorf("duplicate enrollment for %s/%s", enrollment.StudentID, enrollment.OfferingID)
		}
	}
	enrollment.ID = f.w.nextID("enr")
	clone := *enrollment
	f.w.enrollments[enrollment.ID] = &clone
	return nil
}

func (f enrollmentFake) Save(ctx context.Context, tx *sqlx.Tx, enrollment *models.Enrollment) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.enrollments[enrollment.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *enrollment
	f.w.enrollments[enrollment.ID] = &clone
	return nil
}

func (f enrollmentFake) Delete(ctx context.Context, tx *sqlx.Tx, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	delete(f.w.enrollments, id)
	return nil
}

type studentFake struct{ w *memoryWorld }

func (f studentFake) FindByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	s, ok := f.w.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (f studentFake) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, s := range f.w.students {
		if s.UserID == userID {
			clone := *s
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f studentFake) ListIDs(ctx context.Context) ([]string, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	ids := make([]string, 0, len(f.w.students))
	for id := range f.w.students {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f studentFake) LockForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.StudentProfile, error) {
	return f.FindByID(ctx, id)
}

func (f studentFake) UpdateAcademicSummary(ctx context.Context, tx *sqlx.Tx, id string, summary models.AcademicSummary) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	s, ok := f.w.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.GPA = summary.GPA
	s.CompletedCredits = summary.CompletedCredits
	s.RegisteredCredits = summary.RegisteredCredits
	return nil
}

type instructorFake struct{ w *memoryWorld }

func (f instructorFake) FindByUserID(ctx context.Context, userID string) (*models.Instructor, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, i := range f.w.instructors {
		if i.UserID == userID {
			clone := *i
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

type transcriptFake struct{ w *memoryWorld }

func (f transcriptFake) FindByKey(ctx context.Context, tx *sqlx.Tx, studentID, offeringID, courseID string) (*models.Transcript, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, row := range f.w.transcripts {
		if row.StudentID == studentID && row.OfferingID == offeringID && row.CourseID == courseID {
			clone := *row
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f transcriptFake) Insert(ctx context.Context, tx *sqlx.Tx, transcript *models.Transcript) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	f.w.nextRow++
	transcript.ID = f.w.nextRow
	clone := *transcript
	f.w.transcripts[transcript.ID] = &clone
	return nil
}

func (f transcriptFake) Update(ctx context.Context, tx *sqlx.Tx, transcript *models.Transcript) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	clone := *transcript
	f.w.transcripts[transcript.ID] = &clone
	return nil
}

func (f transcriptFake) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	delete(f.w.transcripts, id)
	return nil
}

func (f transcriptFake) ListByStudent(ctx context.Context, exec sqlx.QueryerContext, studentID string) ([]models.TranscriptDetail, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var rows []models.TranscriptDetail
	for _, row := range f.w.transcripts {
		if row.StudentID != studentID {
			continue
		}
		detail := models.TranscriptDetail{Transcript: *row}
		if o := f.w.offerings[row.OfferingID]; o != nil {
			detail.CourseCode = o.CourseCode
			detail.CourseName = o.CourseName
		}
		rows = append(rows, detail)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

type cartFake struct{ w *memoryWorld }

func (f cartFake) FindByStudent(ctx context.Context, studentID string) (*models.Cart, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	c, ok := f.w.carts[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (f cartFake) GetOrCreate(ctx context.Context, studentID string) (*models.Cart, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	c, ok := f.w.carts[studentID]
	if !ok {
		c = &models.Cart{ID: f.w.nextID("cart"), StudentID: studentID}
		f.w.carts[studentID] = c
	}
	clone := *c
	return &clone, nil
}

func (f cartFake) AddItem(ctx context.Context, item *models.CartItem) (bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, existing := range f.w.cartItems {
		if existing.CartID == item.CartID && existing.ScheduleSlotID == item.ScheduleSlotID {
			return false, nil
		}
	}
	item.ID = f.w.nextID("item")
	clone := *item
	f.w.cartItems = append(f.w.cartItems, &clone)
	return true, nil
}

func (f cartFake) FindItem(ctx context.Context, id string) (*models.CartItem, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, item := range f.w.cartItems {
		if item.ID == id {
			clone := *item
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f cartFake) RemoveItem(ctx context.Context, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	kept := f.w.cartItems[:0]
	for _, item := range f.w.cartItems {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	f.w.cartItems = kept
	return nil
}

func (f cartFake) ListItemDetails(ctx context.Context, exec sqlx.QueryerContext, cartID string) ([]models.CartItemDetail, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var details []models.CartItemDetail
	for _, item := range f.w.cartItems {
		if item.CartID != cartID {
			continue
		}
		detail := models.CartItemDetail{CartItemID: item.ID, AddedAt: item.AddedAt}
		detail.ScheduleSlotID = item.ScheduleSlotID
		if row, ok := f.w.slots[item.ScheduleSlotID]; ok {
			if o := f.w.offerings[row.offeringID]; o != nil {
				offeringID, courseID, code, name, section := o.ID, o.CourseID, o.CourseCode, o.CourseName, o.SectionCode
				seats := o.AvailableSeats
				detail.OfferingID = &offeringID
				detail.CourseID = &courseID
				detail.CourseCode = &code
				detail.CourseName = &name
				detail.SectionCode = &section
				detail.AvailableSeats = &seats
			}
			ts := row.slot
			room := row.room
			detail.TimeSlotID = &ts.ID
			detail.DayOfWeek = &ts.DayOfWeek
			detail.StartTime = &ts.StartTime
			detail.EndTime = &ts.EndTime
			detail.RoomName = &room
		}
		details = append(details, detail)
	}
	return details, nil
}

func (f cartFake) Clear(ctx context.Context, tx *sqlx.Tx, cartID string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	kept := f.w.cartItems[:0]
	for _, item := range f.w.cartItems {
		if item.CartID != cartID {
			kept = append(kept, item)
		}
	}
	f.w.cartItems = kept
	return nil
}

func (f cartFake) itemCount(studentID string) int {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	c, ok := f.w.carts[studentID]
	if !ok {
		return 0
	}
	count := 0
	for _, item := range f.w.cartItems {
		if item.CartID == c.ID {
			count++
		}
	}
	return count
}

type slotFake struct{ w *memoryWorld }

func (f slotFake) Exists(ctx context.Context, id string) (bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	_, ok := f.w.slots[id]
	return ok, nil
}

type configFake struct {
	w   *memoryWorld
	err error
}

func (f configFake) ListByKeys(ctx context.Context, keys []string) ([]models.Configuration, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var list []models.Configuration
	for _, key := range keys {
		if cfg, ok := f.w.configs[key]; ok {
			list = append(list, cfg)
		}
	}
	return list, nil
}

func (f configFake) BulkUpsert(ctx context.Context, cfgs []models.Configuration) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, cfg := range cfgs {
		f.w.configs[cfg.Key] = cfg
	}
	return nil
}

type auditFake struct{ w *memoryWorld }

func (f auditFake) Create(ctx context.Context, log *models.AuditLog) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	f.w.audits = append(f.w.audits, *log)
	return nil
}

func (w *memoryWorld) auditActions() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	actions := make([]string, 0, len(w.audits))
	for _, entry := range w.audits {
		actions = append(actions, entry.Action)
	}
	return actions
}

type notifierFake struct{ w *memoryWorld }

func (f notifierFake) Notify(ctx context.Context, userID, kind string, payload map[string]interface{}) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	f.w.sent = append(f.w.sent, sentNotification{userID: userID, kind: kind, payload: payload})
	return nil
}

func (w *memoryWorld) notificationKinds() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	kinds := make([]string, 0, len(w.sent))
	for _, n := range w.sent {
		kinds = append(kinds, n.kind)
	}
	return kinds
}

// registration wires the real services over a memoryWorld.
type registration struct {
	world       *memoryWorld
	tx          *autoTxProvider
	metrics     *MetricsService
	settings    *RegistrationSettingsService
	records     *AcademicRecordService
	sync        *TranscriptSynchronizer
	enrollments *EnrollmentService
	carts       *CartService
}

var registrationDay = time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

var openCalendar = config.RegistrationConfig{
	RegistrationStart: "2024-01-01",
	RegistrationEnd:   "2024-01-31",
	WithdrawStart:     "2024-03-01",
	WithdrawEnd:       "2024-03-15",
	RetakePolicy:      string(models.RetakeLatestAttemptOnly),
}

func newRegistration(t *testing.T, world *memoryWorld) *registration {
	tx := newAutoTxProvider(t)
	metrics := NewMetricsService()
	settings := NewRegistrationSettingsService(configFake{w: world}, openCalendar, auditFake{w: world}, nil, nil)
	records := NewAcademicRecordService(AcademicRecordDeps{
		Tx:          tx,
		Students:    studentFake{w: world},
		Transcripts: transcriptFake{w: world},
		Enrollments: enrollmentFake{w: world},
		Policy:      settings,
		Metrics:     metrics,
		Audit:       auditFake{w: world},
	}, nil, nil)
	syncer := NewTranscriptSynchronizer(transcriptFake{w: world}, records, nil)
	enrollments := NewEnrollmentService(EnrollmentDeps{
		Tx:          tx,
		Offerings:   offeringFake{w: world},
		Enrollments: enrollmentFake{w: world},
		Students:    studentFake{w: world},
		Transcripts: syncer,
		Settings:    settings,
		Records:     records,
		Metrics:     metrics,
		Audit:       auditFake{w: world},
		Notifier:    notifierFake{w: world},
	}, nil, nil)
	carts := NewCartService(CartDeps{
		Tx:        tx,
		Carts:     cartFake{w: world},
		Slots:     slotFake{w: world},
		Students:  studentFake{w: world},
		Validator: NewCheckoutValidator(enrollmentFake{w: world}, offeringFake{w: world}),
		Enroller:  enrollments,
		Records:   records,
		Metrics:   metrics,
		Audit:     auditFake{w: world},
		Notifier:  notifierFake{w: world},
	}, nil, nil)
	enrollments.now = func() time.Time { return registrationDay }
	carts.now = func() time.Time { return registrationDay }
	return &registration{
		world:       world,
		tx:          tx,
		metrics:     metrics,
		settings:    settings,
		records:     records,
		sync:        syncer,
		enrollments: enrollments,
		carts:       carts,
	}
}
