package delivery_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mailgo/mailgo-backend/internal/delivery"
	apperrors "github.com/mailgo/mailgo-backend/internal/errors"
	"github.com/mailgo/mailgo-backend/internal/logger"
	"github.com/mailgo/mailgo-backend/internal/models"
	"github.com/mailgo/mailgo-backend/internal/repository"
	"github.com/mailgo/mailgo-backend/internal/spam"
	"github.com/mailgo/mailgo-backend/tests/mocks"
)

const (
	addrAlice = "alice@example.com"
	addrBob   = "bob@example.com"
	addrCarol = "carol@example.com"
	addrDave  = "dave@example.com"
)

type pipelineFixture struct {
	pipeline *delivery.Pipeline
	messages *mocks.MockMessageRepository
	resolver *mocks.MockResolver
	notifier *mocks.RecordingNotifier

	created []*models.Message
	nextID  uint
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		messages: new(mocks.MockMessageRepository),
		resolver: new(mocks.MockResolver),
		notifier: &mocks.RecordingNotifier{},
		nextID:   100,
	}
	f.pipeline = delivery.NewPipeline(f.messages, f.resolver, spam.NewFromCorpus(), f.notifier, logger.NewEventLogger())
	return f
}

// expectPersist records every persisted copy and assigns sequential IDs.
func (f *pipelineFixture) expectPersist() {
	record := func(args mock.Arguments) {
		msg := args.Get(1).(*models.Message)
		f.nextID++
		msg.ID = f.nextID
		f.created = append(f.created, msg)
	}
	f.messages.On("CreateWithAttachments", mock.Anything, mock.AnythingOfType("*models.Message"), mock.Anything).
		Run(record).Return(nil)
	f.messages.On("Create", mock.Anything, mock.AnythingOfType("*models.Message")).
		Run(record).Return(nil)
}

func (f *pipelineFixture) resolveAll(addrs ...string) {
	resolved := make(map[string]*models.User, len(addrs))
	for i, a := range addrs {
		resolved[a] = &models.User{ID: uint(i + 1), Email: a, IsEmailVerified: true}
	}
	f.resolver.On("ResolveAll", mock.Anything, mock.Anything).Return(resolved, nil)
}

func (f *pipelineFixture) noAutoReply(addrs ...string) {
	for _, a := range addrs {
		f.resolver.On("AutoReply", mock.Anything, a).Return(&models.AutoReply{Enabled: false}, nil)
	}
}

func (f *pipelineFixture) copyForOwner(t *testing.T, owner string) *models.Message {
	t.Helper()
	for _, m := range f.created {
		if m.Owner == owner {
			return m
		}
	}
	t.Fatalf("no copy persisted for owner %s", owner)
	return nil
}

func alice() *models.User {
	return &models.User{ID: 1, Email: addrAlice, IsEmailVerified: true}
}

func TestSend_FanOutOneCopyPerParticipant(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectPersist()
	f.resolveAll(addrBob, addrCarol, addrDave)
	f.noAutoReply(addrBob)

	sent, err := f.pipeline.Send(context.Background(), alice(), delivery.SendRequest{
		Recipients: []string{addrBob},
		Cc:         []string{addrCarol},
		Bcc:        []string{addrDave},
		Subject:    "meeting tomorrow",
		Body:       "project update and next steps",
	})
	require.NoError(t, err)
	require.NotNil(t, sent)

	// Sender copy plus one copy per distinct participant
	require.Len(t, f.created, 4)

	assert.Equal(t, addrAlice, sent.Owner)
	assert.Equal(t, models.FolderSent, sent.Folder)
	assert.Equal(t, []string{addrDave}, sent.Bcc)

	for _, addr := range []string{addrBob, addrCarol, addrDave} {
		cp := f.copyForOwner(t, addr)
		assert.Equal(t, models.FolderInbox, cp.Folder)
		assert.Equal(t, addrAlice, cp.Sender)
		assert.Equal(t, sent.SentAt, cp.SentAt)
	}

	// Notified in participant order, after each copy was persisted
	assert.Equal(t, []string{addrBob, addrCarol, addrDave}, f.notifier.Identities())
}

func TestSend_BccInvisibleOnOtherCopies(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectPersist()
	f.resolveAll(addrBob, addrCarol, addrDave)
	f.noAutoReply(addrBob)

	sent, err := f.pipeline.Send(context.Background(), alice(), delivery.SendRequest{
		Recipients: []string{addrBob},
		Cc:         []string{addrCarol},
		Bcc:        []string{addrDave},
		Subject:    "meeting tomorrow",
		Body:       "project update",
	})
	require.NoError(t, err)

	// Only the sender's copy records the bcc set
	assert.Equal(t, []string{addrDave}, sent.Bcc)
	for _, addr := range []string{addrBob, addrCarol, addrDave} {
		assert.Empty(t, f.copyForOwner(t, addr).Bcc, "bcc leaked on %s's copy", addr)
	}
}

func TestSend_DuplicateAddressGetsOneCopy(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectPersist()
	f.resolveAll(addrBob)
	f.noAutoReply(addrBob)

	_, err := f.pipeline.Send(context.Background(), alice(), delivery.SendRequest{
		Recipients: []string{addrBob, "  BOB@example.com "},
		Cc:         []string{addrBob},
		Subject:    "meeting tomorrow",
		Body:       "project update",
	})
	require.NoError(t, err)

	// Sender copy + exactly one copy for bob
	require.Len(t, f.created, 2)
	assert.Equal(t, []string{addrBob}, f.notifier.Identities())
}

func TestSend_SenderInRecipientsKeepsSentCopyOnly(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectPersist()
	f.resolveAll(addrAlice, addrBob)
	f.noAutoReply(addrBob)

	_, err := f.pipeline.Send(context.Background(), alice(), delivery.SendRequest{
		Recipients: []string{addrAlice, addrBob},
		Subject:    "meeting tomorrow",
		Body:       "project update",
	})
	require.NoError(t, err)

	require.Len(t, f.created, 2)
	assert.Equal(t, models.FolderSent, f.copyForOwner(t, addrAlice).Folder)
	assert.Equal(t, []string{addrBob}, f.notifier.Identities())
}

func TestSend_ValidationFailuresPersistNothing(t *testing.T) {
	tests := []struct {
		name  string
		req   delivery.SendRequest
		field string
	}{
		{"no recipients", delivery.SendRequest{Subject: "s", Body: "b"}, "recipients"},
		{"blank subject", delivery.SendRequest{Recipients: []string{addrBob}, Subject: "  ", Body: "b"}, "subject"},
		{"blank body", delivery.SendRequest{Recipients: []string{addrBob}, Subject: "s", Body: ""}, "body"},
		{"malformed recipient", delivery.SendRequest{Recipients: []string{"not-an-address"}, Subject: "s", Body: "b"}, "recipients"},
		{"malformed cc", delivery.SendRequest{Recipients: []string{addrBob}, Cc: []string{"@@"}, Subject: "s", Body: "b"}, "cc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPipelineFixture(t)

			_, err := f.pipeline.Send(context.Background(), alice(), tt.req)

			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			f.messages.AssertNotCalled(t, "CreateWithAttachments", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSend_UnresolvableRecipientFailsAtomically(t *testing.T) {
	f := newPipelineFixture(t)
	f.resolver.On("ResolveAll", mock.Anything, mock.Anything).Return(
		map[string]*models.User{addrBob: {ID: 2, Email: addrBob, IsEmailVerified: true}}, nil)

	_, err := f.pipeline.Send(context.Background(), alice(), delivery.SendRequest{
		Recipients: []string{addrBob, "ghost@example.com"},
		Subject:    "meeting tomorrow",
		Body:       "project update",
	})

	var rerr *apperrors.RecipientNotFoundError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, []string{"ghost@example.com"}, rerr.Addresses)

	// Nothing persisted, nobody notified
	f.messages.AssertNotCalled(t, "CreateWithAttachments", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.notifier.Records)
}

func TestSend_SpamRoutedToSpamFolder(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectPersist()
	f.resolveAll(addrBob)

	sent, err := f.pipeline.Send(context.Background(), alice(), delivery.SendRequest{
		Recipients: []string{addrBob},
		Subject:    "win free money now",
		Body:       "click here for your exclusive prize, limited time offer",
	})
	require.NoError(t, err)

	// Sender copy is unaffected by the verdict
	assert.Equal(t, models.FolderSent, sent.Folder)
	assert.Equal(t, models.FolderSpam, f.copyForOwner(t, addrBob).Folder)

	require.Len(t, f.notifier.Records, 1)
	assert.Equal(t, spam.VerdictSpam, f.notifier.Records[0].Payload.SpamVerdict)

	// No auto-reply rows: just sender copy + spam copy
	assert.Len(t, f.created, 2)
	f.resolver.AssertNotCalled(t, "AutoReply", mock.Anything, addrBob)
}

func TestSend_AutoReplyDeliveredAfterFanOut(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectPersist()
	f.resolveAll(addrBob)
	f.resolver.On("AutoReply", mock.Anything, addrBob).Return(
		&models.AutoReply{Enabled: true, Message: "out of office"}, nil)

	sent, err := f.pipeline.Send(context.Background(), alice(), delivery.SendRequest{
		Recipients: []string{addrBob},
		Subject:    "meeting tomorrow",
		Body:       "project update",
	})
	require.NoError(t, err)

	// sender copy, bob's inbox copy, bob's auto-reply sent copy, alice's
	// auto-reply inbox copy
	require.Len(t, f.created, 4)

	replySent := f.created[2]
	replyInbox := f.created[3]

	assert.Equal(t, addrBob, replySent.Owner)
	assert.Equal(t, models.FolderSent, replySent.Folder)
	assert.Equal(t, addrAlice, replyInbox.Owner)
	assert.Equal(t, models.FolderInbox, replyInbox.Folder)
	assert.Equal(t, "Re: meeting tomorrow", replyInbox.Subject)
	assert.Equal(t, "out of office", replyInbox.Body)
	require.NotNil(t, replyInbox.InReplyTo)
	assert.Equal(t, sent.ID, *replyInbox.InReplyTo)

	// Exactly two notifications: bob first, then alice
	assert.Equal(t, []string{addrBob, addrAlice}, f.notifier.Identities())
}

func TestSend_AutoReplyOnlyForPrimaryRecipients(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectPersist()
	f.resolveAll(addrBob, addrCarol)
	f.noAutoReply(addrBob)

	_, err := f.pipeline.Send(context.Background(), alice(), delivery.SendRequest{
		Recipients: []string{addrBob},
		Cc:         []string{addrCarol},
		Subject:    "meeting tomorrow",
		Body:       "project update",
	})
	require.NoError(t, err)

	// CC participants never trigger auto-reply evaluation
	f.resolver.AssertNotCalled(t, "AutoReply", mock.Anything, addrCarol)
}

func TestSend_PartialDeliveryReported(t *testing.T) {
	f := newPipelineFixture(t)
	f.resolveAll(addrBob, addrCarol)
	f.noAutoReply(addrBob, addrCarol)

	persistOK := func(args mock.Arguments) {
		msg := args.Get(1).(*models.Message)
		f.nextID++
		msg.ID = f.nextID
		f.created = append(f.created, msg)
	}
	isOwner := func(owner string) interface{} {
		return mock.MatchedBy(func(m *models.Message) bool { return m.Owner == owner })
	}
	f.messages.On("CreateWithAttachments", mock.Anything, isOwner(addrAlice), mock.Anything).Run(persistOK).Return(nil)
	f.messages.On("CreateWithAttachments", mock.Anything, isOwner(addrBob), mock.Anything).Run(persistOK).Return(nil)
	f.messages.On("CreateWithAttachments", mock.Anything, isOwner(addrCarol), mock.Anything).Return(assert.AnError)

	sent, err := f.pipeline.Send(context.Background(), alice(), delivery.SendRequest{
		Recipients: []string{addrBob, addrCarol},
		Subject:    "meeting tomorrow",
		Body:       "project update",
	})

	assert.ErrorIs(t, err, apperrors.ErrDeliveryFailed)
	require.NotNil(t, sent)

	// Bob's delivery stands; only bob was notified
	assert.Equal(t, []string{addrBob}, f.notifier.Identities())
}

func TestSend_NotifierFailureIsNotADeliveryFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectPersist()
	f.resolveAll(addrBob)
	f.noAutoReply(addrBob)
	f.notifier.Err = assert.AnError

	_, err := f.pipeline.Send(context.Background(), alice(), delivery.SendRequest{
		Recipients: []string{addrBob},
		Subject:    "meeting tomorrow",
		Body:       "project update",
	})

	require.NoError(t, err)
	require.Len(t, f.created, 2)
}

func TestReply_DefaultsToOriginalSender(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectPersist()
	f.resolveAll(addrBob)

	original := &models.Message{
		ID:         50,
		Owner:      addrAlice,
		Sender:     addrBob,
		Recipients: []string{addrAlice},
		Subject:    "meeting tomorrow",
		Body:       "original text",
	}
	f.messages.On("GetByID", mock.Anything, uint(50)).Return(original, nil)

	sent, err := f.pipeline.Reply(context.Background(), alice(), 50, delivery.ReplyRequest{
		Body: "sounds good",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{addrBob}, sent.Recipients)
	assert.Equal(t, "Re: meeting tomorrow", sent.Subject)
	assert.Contains(t, sent.Body, "sounds good")
	assert.Contains(t, sent.Body, "--- Original Message ---")
	require.NotNil(t, sent.InReplyTo)
	assert.Equal(t, uint(50), *sent.InReplyTo)
}

func TestReply_NoDoubleRePrefix(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectPersist()
	f.resolveAll(addrBob)

	original := &models.Message{
		ID:         51,
		Owner:      addrAlice,
		Sender:     addrBob,
		Recipients: []string{addrAlice},
		Subject:    "Re: meeting tomorrow",
		Body:       "original text",
	}
	f.messages.On("GetByID", mock.Anything, uint(51)).Return(original, nil)

	sent, err := f.pipeline.Reply(context.Background(), alice(), 51, delivery.ReplyRequest{Body: "ok"})
	require.NoError(t, err)

	assert.Equal(t, "Re: meeting tomorrow", sent.Subject)
}

func TestReply_RequiresParticipation(t *testing.T) {
	f := newPipelineFixture(t)

	original := &models.Message{
		ID:         52,
		Owner:      addrBob,
		Sender:     addrBob,
		Recipients: []string{addrCarol},
		Subject:    "private",
		Body:       "text",
	}
	f.messages.On("GetByID", mock.Anything, uint(52)).Return(original, nil)

	_, err := f.pipeline.Reply(context.Background(), alice(), 52, delivery.ReplyRequest{Body: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestReply_OriginalNotFound(t *testing.T) {
	f := newPipelineFixture(t)
	f.messages.On("GetByID", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)

	_, err := f.pipeline.Reply(context.Background(), alice(), 999, delivery.ReplyRequest{Body: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrMessageNotFound)
}

func TestReply_NeverTriggersAutoReply(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectPersist()
	f.resolveAll(addrBob)

	original := &models.Message{
		ID:         53,
		Owner:      addrAlice,
		Sender:     addrBob,
		Recipients: []string{addrAlice},
		Subject:    "hello",
		Body:       "text",
	}
	f.messages.On("GetByID", mock.Anything, uint(53)).Return(original, nil)

	_, err := f.pipeline.Reply(context.Background(), alice(), 53, delivery.ReplyRequest{Body: "hi"})
	require.NoError(t, err)

	f.resolver.AssertNotCalled(t, "AutoReply", mock.Anything, mock.Anything)
}

func TestForward_CarriesOriginalAttachments(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectPersist()
	f.resolveAll(addrCarol)
	f.resolver.On("Resolve", mock.Anything, addrBob).Return(
		&models.User{ID: 2, Name: "Bob", Email: addrBob, IsEmailVerified: true}, nil)
	f.noAutoReply(addrCarol)

	original := &models.Message{
		ID:         60,
		Owner:      addrAlice,
		Sender:     addrBob,
		Recipients: []string{addrAlice},
		Subject:    "report",
		Body:       "see attached",
		Attachments: []models.Attachment{
			{ID: 1, Filename: "q3.pdf", StorageURL: "/attachments/ab/q3.pdf", SizeBytes: 1024},
		},
	}
	f.messages.On("GetByID", mock.Anything, uint(60)).Return(original, nil)

	sent, err := f.pipeline.Forward(context.Background(), alice(), 60, delivery.ForwardRequest{
		Recipients: []string{addrCarol},
		Body:       "fyi",
		Attachments: []models.AttachmentRef{
			{Filename: "notes.txt", StorageURL: "/attachments/cd/notes.txt", SizeBytes: 10},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Fwd: report", sent.Subject)
	assert.Contains(t, sent.Body, "fyi")
	assert.Contains(t, sent.Body, "----- Forwarded Message -----")
	assert.Contains(t, sent.Body, "see attached")
	require.NotNil(t, sent.ForwardedFrom)
	assert.Equal(t, uint(60), *sent.ForwardedFrom)

	// Both the new and the original attachment refs travel with every copy
	calls := f.messages.Calls
	var attachmentArgs [][]models.Attachment
	for _, call := range calls {
		if call.Method == "CreateWithAttachments" {
			attachmentArgs = append(attachmentArgs, call.Arguments.Get(2).([]models.Attachment))
		}
	}
	require.Len(t, attachmentArgs, 2)
	for _, atts := range attachmentArgs {
		require.Len(t, atts, 2)
		assert.Equal(t, "/attachments/cd/notes.txt", atts[0].StorageURL)
		assert.Equal(t, "/attachments/ab/q3.pdf", atts[1].StorageURL)
	}
}

func TestForward_NoParticipationRequired(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectPersist()
	f.resolveAll(addrDave)
	f.resolver.On("Resolve", mock.Anything, addrBob).Return(nil, assert.AnError)
	f.noAutoReply(addrDave)

	// Alice is not a participant of this message
	original := &models.Message{
		ID:         61,
		Owner:      addrCarol,
		Sender:     addrBob,
		Recipients: []string{addrCarol},
		Subject:    "notes",
		Body:       "text",
	}
	f.messages.On("GetByID", mock.Anything, uint(61)).Return(original, nil)

	sent, err := f.pipeline.Forward(context.Background(), alice(), 61, delivery.ForwardRequest{
		Recipients: []string{addrDave},
		Body:       "fyi",
	})
	require.NoError(t, err)

	// Sender display falls back to the bare address when it cannot resolve
	assert.Contains(t, sent.Body, addrBob)
}

func TestSaveDraft_NoValidationNoNotification(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectPersist()

	draft, err := f.pipeline.SaveDraft(context.Background(), alice(), delivery.DraftRequest{
		Recipients: []string{"incomplete@"},
		Body:       "unfinished thought",
	})
	require.NoError(t, err)

	assert.Equal(t, models.FolderDraft, draft.Folder)
	assert.Equal(t, addrAlice, draft.Owner)
	require.NotNil(t, draft.DraftSavedAt)

	f.resolver.AssertNotCalled(t, "ResolveAll", mock.Anything, mock.Anything)
	assert.Empty(t, f.notifier.Records)
}

func TestUpdateDraft_RejectsNonDraft(t *testing.T) {
	f := newPipelineFixture(t)

	sentMsg := &models.Message{ID: 70, Owner: addrAlice, Folder: models.FolderSent}
	f.messages.On("GetOwned", mock.Anything, addrAlice, uint(70)).Return(sentMsg, nil)

	_, err := f.pipeline.UpdateDraft(context.Background(), alice(), 70, delivery.DraftRequest{Body: "x"})

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	f.messages.AssertNotCalled(t, "UpdateDraft", mock.Anything, mock.Anything)
}

func TestUpdateDraft_UpdatesFields(t *testing.T) {
	f := newPipelineFixture(t)

	draft := &models.Message{ID: 71, Owner: addrAlice, Folder: models.FolderDraft, Subject: "old"}
	f.messages.On("GetOwned", mock.Anything, addrAlice, uint(71)).Return(draft, nil)
	f.messages.On("UpdateDraft", mock.Anything, mock.AnythingOfType("*models.Message")).Return(nil)

	updated, err := f.pipeline.UpdateDraft(context.Background(), alice(), 71, delivery.DraftRequest{
		Recipients: []string{addrBob},
		Subject:    "new subject",
		Body:       "new body",
	})
	require.NoError(t, err)

	assert.Equal(t, "new subject", updated.Subject)
	assert.Equal(t, []string{addrBob}, updated.Recipients)
}
