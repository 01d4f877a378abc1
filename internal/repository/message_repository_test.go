package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mailgo/mailgo-backend/internal/models"
)

const (
	ownerAlice = "alice@mailgo.test"
	ownerBob   = "bob@mailgo.test"
)

// MessageRepositoryTestSuite is the test suite for MessageRepository
type MessageRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo MessageRepository
	base time.Time
}

// SetupSuite runs once before all tests
func (s *MessageRepositoryTestSuite) SetupSuite() {
	// Use in-memory SQLite for testing
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	db.Exec("PRAGMA foreign_keys = ON")

	err = db.AutoMigrate(&models.User{}, &models.Message{}, &models.Attachment{}, &models.Label{})
	require.NoError(s.T(), err)

	s.db = db
	s.repo = NewMessageRepository(db)
	s.base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

// TearDownSuite runs once after all tests
func (s *MessageRepositoryTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SetupTest runs before each test - clean up data
func (s *MessageRepositoryTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM attachments")
	s.db.Exec("DELETE FROM messages")
}

// TestMessageRepositoryTestSuite runs the test suite
func TestMessageRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(MessageRepositoryTestSuite))
}

// mustCreate persists a message row, filling in defaults for required fields.
func (s *MessageRepositoryTestSuite) mustCreate(msg *models.Message) *models.Message {
	if msg.Owner == "" {
		msg.Owner = ownerAlice
	}
	if msg.Sender == "" {
		msg.Sender = ownerBob
	}
	if msg.Folder == "" {
		msg.Folder = models.FolderInbox
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = s.base
	}
	require.NoError(s.T(), s.repo.Create(context.Background(), msg))
	return msg
}

// ==================== Create Tests ====================

func (s *MessageRepositoryTestSuite) TestCreate_Success() {
	// Arrange
	message := &models.Message{
		Owner:      ownerAlice,
		Sender:     ownerBob,
		Recipients: []string{ownerAlice},
		Subject:    "Test Subject",
		Body:       "Test body text",
		Folder:     models.FolderInbox,
		SentAt:     s.base,
	}

	// Act
	err := s.repo.Create(context.Background(), message)

	// Assert
	assert.NoError(s.T(), err)
	assert.NotZero(s.T(), message.ID)
}

// ==================== CreateWithAttachments Tests ====================

func (s *MessageRepositoryTestSuite) TestCreateWithAttachments_Success() {
	// Arrange
	message := &models.Message{
		Owner:   ownerAlice,
		Sender:  ownerBob,
		Subject: "With Attachments",
		Folder:  models.FolderInbox,
		SentAt:  s.base,
	}
	attachments := []models.Attachment{
		{Filename: "doc1.pdf", ContentType: "application/pdf", StorageURL: "/attachments/ab/doc1.pdf", SizeBytes: 1024},
		{Filename: "image.png", ContentType: "image/png", StorageURL: "/attachments/cd/image.png", SizeBytes: 2048},
	}

	// Act
	err := s.repo.CreateWithAttachments(context.Background(), message, attachments)

	// Assert
	assert.NoError(s.T(), err)
	assert.NotZero(s.T(), message.ID)

	var saved []models.Attachment
	s.db.Where("message_id = ?", message.ID).Find(&saved)
	assert.Len(s.T(), saved, 2)
	for _, att := range saved {
		assert.Equal(s.T(), message.ID, att.MessageID)
	}
}

func (s *MessageRepositoryTestSuite) TestCreateWithAttachments_NoAttachments() {
	// Arrange
	message := &models.Message{
		Owner:  ownerAlice,
		Sender: ownerBob,
		Folder: models.FolderInbox,
		SentAt: s.base,
	}

	// Act
	err := s.repo.CreateWithAttachments(context.Background(), message, nil)

	// Assert
	assert.NoError(s.T(), err)
	assert.NotZero(s.T(), message.ID)
}

func (s *MessageRepositoryTestSuite) TestCreateWithAttachments_SharedStorageURL() {
	// Two copies of a logical message reference the same storage URL; each
	// copy gets its own attachment row.
	shared := []models.Attachment{
		{Filename: "report.pdf", StorageURL: "/attachments/ef/report.pdf", SizeBytes: 512},
	}

	msg1 := &models.Message{Owner: ownerAlice, Sender: ownerAlice, Folder: models.FolderSent, SentAt: s.base}
	msg2 := &models.Message{Owner: ownerBob, Sender: ownerAlice, Folder: models.FolderInbox, SentAt: s.base}

	require.NoError(s.T(), s.repo.CreateWithAttachments(context.Background(), msg1, shared))
	require.NoError(s.T(), s.repo.CreateWithAttachments(context.Background(), msg2, shared))

	var rows []models.Attachment
	s.db.Where("storage_url = ?", "/attachments/ef/report.pdf").Find(&rows)
	assert.Len(s.T(), rows, 2)
	assert.NotEqual(s.T(), rows[0].MessageID, rows[1].MessageID)
}

// ==================== GetByID / GetOwned Tests ====================

func (s *MessageRepositoryTestSuite) TestGetByID_PreloadsAttachments() {
	// Arrange
	message := &models.Message{Owner: ownerAlice, Sender: ownerBob, Folder: models.FolderInbox, SentAt: s.base}
	attachments := []models.Attachment{{Filename: "a.txt", StorageURL: "/attachments/aa/a.txt", SizeBytes: 1}}
	require.NoError(s.T(), s.repo.CreateWithAttachments(context.Background(), message, attachments))

	// Act
	result, err := s.repo.GetByID(context.Background(), message.ID)

	// Assert
	assert.NoError(s.T(), err)
	require.Len(s.T(), result.Attachments, 1)
	assert.Equal(s.T(), "a.txt", result.Attachments[0].Filename)
}

func (s *MessageRepositoryTestSuite) TestGetByID_NotFound() {
	result, err := s.repo.GetByID(context.Background(), 99999)

	assert.ErrorIs(s.T(), err, ErrNotFound)
	assert.Nil(s.T(), result)
}

func (s *MessageRepositoryTestSuite) TestGetOwned_ScopedToOwner() {
	// Arrange
	msg := s.mustCreate(&models.Message{Owner: ownerAlice, Subject: "mine"})

	// Act
	mine, errMine := s.repo.GetOwned(context.Background(), ownerAlice, msg.ID)
	theirs, errTheirs := s.repo.GetOwned(context.Background(), ownerBob, msg.ID)

	// Assert
	assert.NoError(s.T(), errMine)
	assert.Equal(s.T(), "mine", mine.Subject)
	assert.ErrorIs(s.T(), errTheirs, ErrNotFound)
	assert.Nil(s.T(), theirs)
}

func (s *MessageRepositoryTestSuite) TestGetOwned_RoundTripsParticipantSets() {
	// Arrange
	msg := s.mustCreate(&models.Message{
		Recipients: []string{"r1@mailgo.test", "r2@mailgo.test"},
		Cc:         []string{"c1@mailgo.test"},
		Bcc:        []string{"b1@mailgo.test"},
		Labels:     []string{"work", "urgent"},
	})

	// Act
	result, err := s.repo.GetOwned(context.Background(), ownerAlice, msg.ID)

	// Assert
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"r1@mailgo.test", "r2@mailgo.test"}, result.Recipients)
	assert.Equal(s.T(), []string{"c1@mailgo.test"}, result.Cc)
	assert.Equal(s.T(), []string{"b1@mailgo.test"}, result.Bcc)
	assert.Equal(s.T(), []string{"work", "urgent"}, result.Labels)
}

// ==================== GetOwnedAttachment Tests ====================

func (s *MessageRepositoryTestSuite) TestGetOwnedAttachment_ScopedToOwner() {
	// Arrange
	message := &models.Message{Owner: ownerAlice, Sender: ownerBob, Folder: models.FolderInbox, SentAt: s.base}
	attachments := []models.Attachment{{Filename: "secret.pdf", StorageURL: "/attachments/zz/secret.pdf", SizeBytes: 9}}
	require.NoError(s.T(), s.repo.CreateWithAttachments(context.Background(), message, attachments))

	var row models.Attachment
	require.NoError(s.T(), s.db.Where("message_id = ?", message.ID).First(&row).Error)

	// Act
	mine, errMine := s.repo.GetOwnedAttachment(context.Background(), ownerAlice, row.ID)
	theirs, errTheirs := s.repo.GetOwnedAttachment(context.Background(), ownerBob, row.ID)

	// Assert
	assert.NoError(s.T(), errMine)
	assert.Equal(s.T(), "secret.pdf", mine.Filename)
	assert.ErrorIs(s.T(), errTheirs, ErrNotFound)
	assert.Nil(s.T(), theirs)
}

// ==================== ListFolder Tests ====================

func (s *MessageRepositoryTestSuite) TestListFolder_InboxIncludesSpam() {
	// Arrange
	s.mustCreate(&models.Message{Subject: "regular", Folder: models.FolderInbox, SentAt: s.base})
	s.mustCreate(&models.Message{Subject: "junk", Folder: models.FolderSpam, SentAt: s.base.Add(time.Minute)})
	s.mustCreate(&models.Message{Subject: "archived", Folder: models.FolderArchive, SentAt: s.base})

	// Act
	items, total, err := s.repo.ListFolder(context.Background(), ownerAlice, "inbox", "", 20, 0)

	// Assert
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 2, total)
	require.Len(s.T(), items, 2)
	assert.Equal(s.T(), "junk", items[0].Subject)
	assert.Equal(s.T(), "regular", items[1].Subject)
}

func (s *MessageRepositoryTestSuite) TestListFolder_SpamFolderIsSpamOnly() {
	// Arrange
	s.mustCreate(&models.Message{Subject: "regular", Folder: models.FolderInbox})
	s.mustCreate(&models.Message{Subject: "junk", Folder: models.FolderSpam})

	// Act
	items, total, err := s.repo.ListFolder(context.Background(), ownerAlice, "spam", "", 20, 0)

	// Assert
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 1, total)
	require.Len(s.T(), items, 1)
	assert.Equal(s.T(), "junk", items[0].Subject)
}

func (s *MessageRepositoryTestSuite) TestListFolder_StarredIsDerivedView() {
	// Arrange
	// Starred spans folders but never surfaces trash.
	s.mustCreate(&models.Message{Subject: "starred inbox", Folder: models.FolderInbox, IsStarred: true})
	s.mustCreate(&models.Message{Subject: "starred archive", Folder: models.FolderArchive, IsStarred: true, SentAt: s.base.Add(time.Minute)})
	s.mustCreate(&models.Message{Subject: "starred trash", Folder: models.FolderTrash, IsStarred: true})
	s.mustCreate(&models.Message{Subject: "plain", Folder: models.FolderInbox})

	// Act
	items, total, err := s.repo.ListFolder(context.Background(), ownerAlice, "starred", "", 20, 0)

	// Assert
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 2, total)
	require.Len(s.T(), items, 2)
	assert.Equal(s.T(), "starred archive", items[0].Subject)
	assert.Equal(s.T(), "starred inbox", items[1].Subject)
}

func (s *MessageRepositoryTestSuite) TestListFolder_ScopedToOwner() {
	// Arrange
	s.mustCreate(&models.Message{Owner: ownerAlice, Subject: "alice's"})
	s.mustCreate(&models.Message{Owner: ownerBob, Subject: "bob's"})

	// Act
	items, total, err := s.repo.ListFolder(context.Background(), ownerAlice, "inbox", "", 20, 0)

	// Assert
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 1, total)
	require.Len(s.T(), items, 1)
	assert.Equal(s.T(), "alice's", items[0].Subject)
}

func (s *MessageRepositoryTestSuite) TestListFolder_NewestFirstPagination() {
	// Arrange
	for i := 0; i < 5; i++ {
		s.mustCreate(&models.Message{
			Subject: fmt.Sprintf("msg-%d", i),
			SentAt:  s.base.Add(time.Duration(i) * time.Minute),
		})
	}

	// Act
	page1, total, err := s.repo.ListFolder(context.Background(), ownerAlice, "inbox", "", 2, 0)
	require.NoError(s.T(), err)
	page2, _, err := s.repo.ListFolder(context.Background(), ownerAlice, "inbox", "", 2, 2)
	require.NoError(s.T(), err)

	// Assert
	assert.EqualValues(s.T(), 5, total)
	require.Len(s.T(), page1, 2)
	require.Len(s.T(), page2, 2)
	assert.Equal(s.T(), "msg-4", page1[0].Subject)
	assert.Equal(s.T(), "msg-3", page1[1].Subject)
	assert.Equal(s.T(), "msg-2", page2[0].Subject)
}

func (s *MessageRepositoryTestSuite) TestListFolder_PageSizeCapped() {
	// Arrange
	for i := 0; i < MaxPageSize+10; i++ {
		s.mustCreate(&models.Message{
			Subject: fmt.Sprintf("bulk-%d", i),
			SentAt:  s.base.Add(time.Duration(i) * time.Second),
		})
	}

	// Act
	// An oversized limit is clamped; the total still reports everything.
	items, total, err := s.repo.ListFolder(context.Background(), ownerAlice, "inbox", "", 500, 0)

	// Assert
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), MaxPageSize+10, total)
	assert.Len(s.T(), items, MaxPageSize)
}

func (s *MessageRepositoryTestSuite) TestListFolder_LabelFilterIsExact() {
	// Arrange
	// "work" must not match the distinct label "workout".
	s.mustCreate(&models.Message{Subject: "tagged", Labels: []string{"work"}})
	s.mustCreate(&models.Message{Subject: "other tag", Labels: []string{"workout"}})
	s.mustCreate(&models.Message{Subject: "untagged"})

	// Act
	items, total, err := s.repo.ListFolder(context.Background(), ownerAlice, "inbox", "work", 20, 0)

	// Assert
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 1, total)
	require.Len(s.T(), items, 1)
	assert.Equal(s.T(), "tagged", items[0].Subject)
}

func (s *MessageRepositoryTestSuite) TestListFolder_AttachmentCount() {
	// Arrange
	withAtts := &models.Message{Owner: ownerAlice, Sender: ownerBob, Subject: "has files", Folder: models.FolderInbox, SentAt: s.base}
	require.NoError(s.T(), s.repo.CreateWithAttachments(context.Background(), withAtts, []models.Attachment{
		{Filename: "a.txt", StorageURL: "/attachments/aa/a.txt", SizeBytes: 1},
		{Filename: "b.txt", StorageURL: "/attachments/bb/b.txt", SizeBytes: 2},
	}))
	s.mustCreate(&models.Message{Subject: "bare", SentAt: s.base.Add(-time.Minute)})

	// Act
	items, _, err := s.repo.ListFolder(context.Background(), ownerAlice, "inbox", "", 20, 0)

	// Assert
	require.NoError(s.T(), err)
	require.Len(s.T(), items, 2)
	assert.Equal(s.T(), 2, items[0].AttachmentCount)
	assert.Equal(s.T(), 0, items[1].AttachmentCount)
}

// ==================== Search Tests ====================

func (s *MessageRepositoryTestSuite) seedSearchData() {
	s.mustCreate(&models.Message{
		Subject:    "Quarterly report",
		Body:       "numbers attached",
		Sender:     "boss@mailgo.test",
		Recipients: []string{ownerAlice},
		SentAt:     s.base,
	})
	withAtt := &models.Message{
		Owner:      ownerAlice,
		Sender:     "peer@mailgo.test",
		Recipients: []string{ownerAlice, "team@mailgo.test"},
		Subject:    "design doc",
		Body:       "see the report draft",
		Folder:     models.FolderArchive,
		Labels:     []string{"work"},
		SentAt:     s.base.Add(time.Hour),
	}
	require.NoError(s.T(), s.repo.CreateWithAttachments(context.Background(), withAtt, []models.Attachment{
		{Filename: "doc.pdf", StorageURL: "/attachments/dd/doc.pdf", SizeBytes: 7},
	}))
	s.mustCreate(&models.Message{
		Owner:   ownerBob,
		Subject: "Quarterly report",
		Body:    "bob's copy",
		SentAt:  s.base,
	})
}

func (s *MessageRepositoryTestSuite) TestSearch_KeywordCaseInsensitive() {
	s.seedSearchData()

	items, total, err := s.repo.Search(context.Background(), ownerAlice, SearchQuery{Keyword: "REPORT"})

	require.NoError(s.T(), err)
	// Matches subject of one and body of the other, never bob's copy
	assert.EqualValues(s.T(), 2, total)
	assert.Len(s.T(), items, 2)
}

func (s *MessageRepositoryTestSuite) TestSearch_FromFilter() {
	s.seedSearchData()

	items, _, err := s.repo.Search(context.Background(), ownerAlice, SearchQuery{From: "boss@mailgo.test"})

	require.NoError(s.T(), err)
	require.Len(s.T(), items, 1)
	assert.Equal(s.T(), "Quarterly report", items[0].Subject)
}

func (s *MessageRepositoryTestSuite) TestSearch_ToFilter() {
	s.seedSearchData()

	items, _, err := s.repo.Search(context.Background(), ownerAlice, SearchQuery{To: "team@mailgo.test"})

	require.NoError(s.T(), err)
	require.Len(s.T(), items, 1)
	assert.Equal(s.T(), "design doc", items[0].Subject)
}

func (s *MessageRepositoryTestSuite) TestSearch_HasAttachment() {
	s.seedSearchData()
	yes, no := true, false

	withAtt, _, err := s.repo.Search(context.Background(), ownerAlice, SearchQuery{HasAttachment: &yes})
	require.NoError(s.T(), err)
	withoutAtt, _, err := s.repo.Search(context.Background(), ownerAlice, SearchQuery{HasAttachment: &no})
	require.NoError(s.T(), err)

	require.Len(s.T(), withAtt, 1)
	assert.Equal(s.T(), "design doc", withAtt[0].Subject)
	require.Len(s.T(), withoutAtt, 1)
	assert.Equal(s.T(), "Quarterly report", withoutAtt[0].Subject)
}

func (s *MessageRepositoryTestSuite) TestSearch_DateRange() {
	s.seedSearchData()
	start := s.base.Add(30 * time.Minute)

	items, _, err := s.repo.Search(context.Background(), ownerAlice, SearchQuery{Start: &start})

	require.NoError(s.T(), err)
	require.Len(s.T(), items, 1)
	assert.Equal(s.T(), "design doc", items[0].Subject)
}

func (s *MessageRepositoryTestSuite) TestSearch_CombinedFilters() {
	s.seedSearchData()

	items, _, err := s.repo.Search(context.Background(), ownerAlice, SearchQuery{
		Keyword: "report",
		Label:   "work",
	})

	require.NoError(s.T(), err)
	require.Len(s.T(), items, 1)
	assert.Equal(s.T(), "design doc", items[0].Subject)
}

// ==================== Flag Mutation Tests ====================

func (s *MessageRepositoryTestSuite) TestSetRead_Success() {
	msg := s.mustCreate(&models.Message{})

	err := s.repo.SetRead(context.Background(), ownerAlice, msg.ID, true)

	assert.NoError(s.T(), err)
	reloaded, _ := s.repo.GetOwned(context.Background(), ownerAlice, msg.ID)
	assert.True(s.T(), reloaded.IsRead)
}

func (s *MessageRepositoryTestSuite) TestSetRead_Idempotent() {
	// Re-applying the current value is a success, not a no-op error
	msg := s.mustCreate(&models.Message{IsRead: true})

	err := s.repo.SetRead(context.Background(), ownerAlice, msg.ID, true)

	assert.NoError(s.T(), err)
}

func (s *MessageRepositoryTestSuite) TestSetRead_WrongOwner() {
	msg := s.mustCreate(&models.Message{Owner: ownerAlice})

	err := s.repo.SetRead(context.Background(), ownerBob, msg.ID, true)

	assert.ErrorIs(s.T(), err, ErrNotFound)
	reloaded, _ := s.repo.GetOwned(context.Background(), ownerAlice, msg.ID)
	assert.False(s.T(), reloaded.IsRead)
}

func (s *MessageRepositoryTestSuite) TestSetStarred_IndependentPerCopy() {
	// Two copies of the same logical message; starring one never touches the other
	aliceCopy := s.mustCreate(&models.Message{Owner: ownerAlice, Subject: "shared"})
	bobCopy := s.mustCreate(&models.Message{Owner: ownerBob, Subject: "shared"})

	require.NoError(s.T(), s.repo.SetStarred(context.Background(), ownerAlice, aliceCopy.ID, true))

	bobReloaded, _ := s.repo.GetOwned(context.Background(), ownerBob, bobCopy.ID)
	assert.False(s.T(), bobReloaded.IsStarred)
}

func (s *MessageRepositoryTestSuite) TestMoveToFolder_Success() {
	msg := s.mustCreate(&models.Message{Folder: models.FolderInbox})

	err := s.repo.MoveToFolder(context.Background(), ownerAlice, msg.ID, models.FolderTrash)

	assert.NoError(s.T(), err)
	reloaded, _ := s.repo.GetOwned(context.Background(), ownerAlice, msg.ID)
	assert.Equal(s.T(), models.FolderTrash, reloaded.Folder)
}

func (s *MessageRepositoryTestSuite) TestMoveToFolder_InvalidFolder() {
	msg := s.mustCreate(&models.Message{})

	err := s.repo.MoveToFolder(context.Background(), ownerAlice, msg.ID, "outbox")

	assert.ErrorIs(s.T(), err, ErrInvalidInput)
}

func (s *MessageRepositoryTestSuite) TestSetLabels_ReplacesSet() {
	msg := s.mustCreate(&models.Message{Labels: []string{"old", "stale"}})

	err := s.repo.SetLabels(context.Background(), ownerAlice, msg.ID, []string{"fresh"})

	assert.NoError(s.T(), err)
	reloaded, _ := s.repo.GetOwned(context.Background(), ownerAlice, msg.ID)
	assert.Equal(s.T(), []string{"fresh"}, reloaded.Labels)
}

func (s *MessageRepositoryTestSuite) TestSetLabels_StoresSerializedColumn() {
	// Column-level updates bypass the field serializer; the column must still
	// end up holding the JSON array encoding the serializer reads back.
	msg := s.mustCreate(&models.Message{Labels: []string{"old"}})

	require.NoError(s.T(), s.repo.SetLabels(context.Background(), ownerAlice, msg.ID, []string{"fresh", "new"}))

	var raw string
	require.NoError(s.T(), s.db.Raw("SELECT labels FROM messages WHERE id = ?", msg.ID).Scan(&raw).Error)
	assert.JSONEq(s.T(), `["fresh","new"]`, raw)
}

func (s *MessageRepositoryTestSuite) TestSetLabels_NilClearsSet() {
	msg := s.mustCreate(&models.Message{Labels: []string{"old"}})

	err := s.repo.SetLabels(context.Background(), ownerAlice, msg.ID, nil)

	assert.NoError(s.T(), err)
	reloaded, _ := s.repo.GetOwned(context.Background(), ownerAlice, msg.ID)
	assert.Empty(s.T(), reloaded.Labels)
}

// ==================== UpdateDraft Tests ====================

func (s *MessageRepositoryTestSuite) TestUpdateDraft_Success() {
	draft := s.mustCreate(&models.Message{Folder: models.FolderDraft, Subject: "old subject"})

	draft.Subject = "new subject"
	draft.Recipients = []string{"someone@mailgo.test"}
	err := s.repo.UpdateDraft(context.Background(), draft)

	assert.NoError(s.T(), err)
	assert.NotNil(s.T(), draft.DraftSavedAt)
	reloaded, _ := s.repo.GetOwned(context.Background(), ownerAlice, draft.ID)
	assert.Equal(s.T(), "new subject", reloaded.Subject)
	assert.Equal(s.T(), []string{"someone@mailgo.test"}, reloaded.Recipients)
}

func (s *MessageRepositoryTestSuite) TestUpdateDraft_RejectsNonDraftRow() {
	sentRow := s.mustCreate(&models.Message{Folder: models.FolderSent})

	sentRow.Subject = "tampered"
	err := s.repo.UpdateDraft(context.Background(), sentRow)

	assert.ErrorIs(s.T(), err, ErrNotFound)
}

// ==================== Label Cascade Tests ====================

func (s *MessageRepositoryTestSuite) TestRenameLabelAll_RewritesAllCopies() {
	// Arrange
	s.mustCreate(&models.Message{Labels: []string{"work", "urgent"}})
	s.mustCreate(&models.Message{Labels: []string{"work"}})
	s.mustCreate(&models.Message{Labels: []string{"personal"}})
	s.mustCreate(&models.Message{Owner: ownerBob, Labels: []string{"work"}})

	// Act
	changed, err := s.repo.RenameLabelAll(context.Background(), ownerAlice, "work", "projects")

	// Assert
	// Only alice's rows change; order within the set is preserved.
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 2, changed)

	var aliceRows []models.Message
	s.db.Where("owner = ?", ownerAlice).Order("id").Find(&aliceRows)
	assert.Equal(s.T(), []string{"projects", "urgent"}, aliceRows[0].Labels)
	assert.Equal(s.T(), []string{"projects"}, aliceRows[1].Labels)
	assert.Equal(s.T(), []string{"personal"}, aliceRows[2].Labels)

	var bobRow models.Message
	s.db.Where("owner = ?", ownerBob).First(&bobRow)
	assert.Equal(s.T(), []string{"work"}, bobRow.Labels)
}

func (s *MessageRepositoryTestSuite) TestRenameLabelAll_IgnoresSubstringMatches() {
	s.mustCreate(&models.Message{Labels: []string{"workout"}})

	changed, err := s.repo.RenameLabelAll(context.Background(), ownerAlice, "work", "projects")

	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 0, changed)
}

func (s *MessageRepositoryTestSuite) TestRemoveLabelAll_PullsLabelEverywhere() {
	// Arrange
	s.mustCreate(&models.Message{Labels: []string{"work", "urgent"}})
	s.mustCreate(&models.Message{Labels: []string{"work"}})

	// Act
	changed, err := s.repo.RemoveLabelAll(context.Background(), ownerAlice, "work")

	// Assert
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 2, changed)

	var rows []models.Message
	s.db.Where("owner = ?", ownerAlice).Order("id").Find(&rows)
	assert.Equal(s.T(), []string{"urgent"}, rows[0].Labels)
	assert.Empty(s.T(), rows[1].Labels)
}
