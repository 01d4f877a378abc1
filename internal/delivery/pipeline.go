// Package delivery implements the message fan-out pipeline: one compose
// action becomes one persisted mailbox copy per participant view, plus
// notification emission and single-hop auto-reply expansion.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	apperrors "github.com/mailgo/mailgo-backend/internal/errors"
	"github.com/mailgo/mailgo-backend/internal/identity"
	"github.com/mailgo/mailgo-backend/internal/logger"
	"github.com/mailgo/mailgo-backend/internal/models"
	"github.com/mailgo/mailgo-backend/internal/repository"
	"github.com/mailgo/mailgo-backend/internal/spam"
	"github.com/mailgo/mailgo-backend/internal/validator"
)

// Notification is the event emitted to a mailbox owner after their copy of a
// message has been persisted.
type Notification struct {
	MessageID   uint
	Sender      string
	Subject     string
	SentAt      time.Time
	SpamVerdict spam.Verdict
}

// Notifier delivers an event to all currently-connected sessions of an
// identity. Emission is best-effort: a returned error is logged by the
// pipeline and never propagated as a delivery failure.
type Notifier interface {
	NotifyNewMessage(identityAddr string, n Notification) error
}

// Pipeline orchestrates compose operations. All collaborators are injected;
// the classifier is read-only after construction and safe for concurrent use.
type Pipeline struct {
	messages   repository.MessageRepository
	resolver   identity.Resolver
	classifier *spam.Classifier
	notifier   Notifier
	events     *logger.EventLogger
	policy     *bluemonday.Policy
}

// NewPipeline creates a delivery pipeline.
func NewPipeline(
	messages repository.MessageRepository,
	resolver identity.Resolver,
	classifier *spam.Classifier,
	notifier Notifier,
	events *logger.EventLogger,
) *Pipeline {
	return &Pipeline{
		messages:   messages,
		resolver:   resolver,
		classifier: classifier,
		notifier:   notifier,
		events:     events,
		policy:     bluemonday.UGCPolicy(),
	}
}

// SendRequest carries the fields of a compose action.
type SendRequest struct {
	Recipients  []string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	Attachments []models.AttachmentRef
}

// ReplyRequest carries the fields of a reply action. When Recipients is
// empty the reply goes to the original sender.
type ReplyRequest struct {
	Recipients  []string
	Cc          []string
	Bcc         []string
	Body        string
	Attachments []models.AttachmentRef
}

// ForwardRequest carries the fields of a forward action.
type ForwardRequest struct {
	Recipients  []string
	Cc          []string
	Bcc         []string
	Body        string
	Attachments []models.AttachmentRef
}

// DraftRequest carries the fields of a draft save. Everything is optional;
// drafts may reference incomplete or invalid recipients.
type DraftRequest struct {
	Recipients  []string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	Attachments []models.AttachmentRef
}

// composed is a validated compose action ready for fan-out.
type composed struct {
	sender        string
	recipients    []string
	cc            []string
	bcc           []string
	subject       string
	body          string
	attachments   []models.AttachmentRef
	inReplyTo     *uint
	forwardedFrom *uint
	expandReplies bool
}

// Send validates, classifies and fans out a new message. It returns the
// sender-side sent copy. Participant validation is all-or-nothing: nothing
// is persisted unless every address resolves to a contactable identity.
func (p *Pipeline) Send(ctx context.Context, sender *models.User, req SendRequest) (*models.Message, error) {
	recipients, err := normalizeAddressSet("recipients", req.Recipients, true)
	if err != nil {
		return nil, err
	}
	cc, err := normalizeAddressSet("cc", req.Cc, false)
	if err != nil {
		return nil, err
	}
	bcc, err := normalizeAddressSet("bcc", req.Bcc, false)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Subject) == "" {
		return nil, apperrors.NewValidationError("subject", "must not be empty")
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, apperrors.NewValidationError("body", "must not be empty")
	}

	return p.deliver(ctx, composed{
		sender:        sender.Email,
		recipients:    recipients,
		cc:            cc,
		bcc:           bcc,
		subject:       req.Subject,
		body:          req.Body,
		attachments:   req.Attachments,
		expandReplies: true,
	})
}

// Reply validates authorization against the original message and fans out a
// reply. The reply never re-triggers auto-reply evaluation.
func (p *Pipeline) Reply(ctx context.Context, sender *models.User, originalID uint, req ReplyRequest) (*models.Message, error) {
	original, err := p.messages.GetByID(ctx, originalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to load original message: %w", err)
	}
	if !original.HasParticipant(sender.Email) {
		return nil, apperrors.ErrUnauthorized
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, apperrors.NewValidationError("body", "must not be empty")
	}

	rawRecipients := req.Recipients
	if len(rawRecipients) == 0 {
		rawRecipients = []string{original.Sender}
	}
	recipients, err := normalizeAddressSet("recipients", rawRecipients, true)
	if err != nil {
		return nil, err
	}
	cc, err := normalizeAddressSet("cc", req.Cc, false)
	if err != nil {
		return nil, err
	}
	bcc, err := normalizeAddressSet("bcc", req.Bcc, false)
	if err != nil {
		return nil, err
	}

	id := original.ID
	return p.deliver(ctx, composed{
		sender:      sender.Email,
		recipients:  recipients,
		cc:          cc,
		bcc:         bcc,
		subject:     replySubject(original.Subject),
		body:        req.Body + "\n\n--- Original Message ---\n" + original.Body,
		attachments: req.Attachments,
		inReplyTo:   &id,
	})
}

// Forward fans out an existing message to new recipients. Forwarding does
// not require prior participation: any authenticated user may forward any
// message id they can reference. Original attachments are carried by storage
// URL and never re-uploaded.
func (p *Pipeline) Forward(ctx context.Context, sender *models.User, originalID uint, req ForwardRequest) (*models.Message, error) {
	original, err := p.messages.GetByID(ctx, originalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to load original message: %w", err)
	}

	recipients, err := normalizeAddressSet("recipients", req.Recipients, true)
	if err != nil {
		return nil, err
	}
	cc, err := normalizeAddressSet("cc", req.Cc, false)
	if err != nil {
		return nil, err
	}
	bcc, err := normalizeAddressSet("bcc", req.Bcc, false)
	if err != nil {
		return nil, err
	}

	// Display identity of the original sender, resolved now, not cached with
	// the original message.
	senderDisplay := original.Sender
	if origUser, rerr := p.resolver.Resolve(ctx, original.Sender); rerr == nil && origUser.Name != "" {
		senderDisplay = fmt.Sprintf("%s <%s>", origUser.Name, origUser.Email)
	}

	attachments := make([]models.AttachmentRef, 0, len(req.Attachments)+len(original.Attachments))
	attachments = append(attachments, req.Attachments...)
	for _, a := range original.Attachments {
		attachments = append(attachments, a.Ref())
	}

	body := fmt.Sprintf("%s\n\n----- Forwarded Message -----\nFrom: %s\nSubject: %s\n\n%s",
		req.Body, senderDisplay, original.Subject, original.Body)

	id := original.ID
	return p.deliver(ctx, composed{
		sender:        sender.Email,
		recipients:    recipients,
		cc:            cc,
		bcc:           bcc,
		subject:       "Fwd: " + original.Subject,
		body:          body,
		attachments:   attachments,
		forwardedFrom: &id,
	})
}

// SaveDraft persists a draft copy. No recipient validation, no
// classification, no notification.
func (p *Pipeline) SaveDraft(ctx context.Context, sender *models.User, req DraftRequest) (*models.Message, error) {
	now := time.Now()
	draft := &models.Message{
		Owner:        sender.Email,
		Sender:       sender.Email,
		Recipients:   dedupe(trimAll(req.Recipients)),
		Cc:           dedupe(trimAll(req.Cc)),
		Bcc:          dedupe(trimAll(req.Bcc)),
		Subject:      req.Subject,
		Body:         p.policy.Sanitize(req.Body),
		Folder:       models.FolderDraft,
		SentAt:       now,
		DraftSavedAt: &now,
	}
	if err := p.messages.CreateWithAttachments(ctx, draft, toAttachmentRows(req.Attachments)); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return draft, nil
}

// UpdateDraft updates an existing draft in place and refreshes its
// draft_saved_at timestamp.
func (p *Pipeline) UpdateDraft(ctx context.Context, sender *models.User, draftID uint, req DraftRequest) (*models.Message, error) {
	draft, err := p.messages.GetOwned(ctx, sender.Email, draftID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	if draft.Folder != models.FolderDraft {
		return nil, apperrors.NewValidationError("id", "message is not a draft")
	}

	draft.Recipients = dedupe(trimAll(req.Recipients))
	draft.Cc = dedupe(trimAll(req.Cc))
	draft.Bcc = dedupe(trimAll(req.Bcc))
	draft.Subject = req.Subject
	draft.Body = p.policy.Sanitize(req.Body)

	if err := p.messages.UpdateDraft(ctx, draft); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to update draft: %w", err)
	}
	return draft, nil
}

// deliver runs the fan-out: resolve all participants (all-or-nothing),
// classify, persist the sender copy, persist one inbox copy per distinct
// participant with its notification, then expand auto-replies single-hop.
func (p *Pipeline) deliver(ctx context.Context, c composed) (*models.Message, error) {
	// Union of all participant addresses, deduplicated. A participant gets
	// exactly one inbox copy even when listed in several sets.
	union := dedupe(append(append(append([]string{}, c.recipients...), c.cc...), c.bcc...))

	resolved, err := p.resolver.ResolveAll(ctx, union)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve participants: %w", err)
	}
	var missing []string
	for _, addr := range union {
		if _, ok := resolved[addr]; !ok {
			missing = append(missing, addr)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewRecipientNotFoundError(missing)
	}

	verdict := p.classifier.Classify(c.subject + " " + c.body)
	body := p.policy.Sanitize(c.body)
	sentAt := time.Now()

	// Sender copy first: it must be durable before any recipient copy.
	senderCopy := &models.Message{
		Owner:         c.sender,
		Sender:        c.sender,
		Recipients:    c.recipients,
		Cc:            c.cc,
		Bcc:           c.bcc,
		Subject:       c.subject,
		Body:          body,
		Folder:        models.FolderSent,
		SentAt:        sentAt,
		InReplyTo:     c.inReplyTo,
		ForwardedFrom: c.forwardedFrom,
	}
	if err := p.messages.CreateWithAttachments(ctx, senderCopy, toAttachmentRows(c.attachments)); err != nil {
		return nil, fmt.Errorf("%w: failed to persist sender copy: %v", apperrors.ErrDeliveryFailed, err)
	}

	inboxFolder := models.FolderInbox
	if verdict.IsSpam() {
		inboxFolder = models.FolderSpam
	}

	// One copy per distinct participant, each followed by its notification.
	// A failure here is logged and does not roll back earlier copies.
	var failed bool
	for _, addr := range union {
		if addr == c.sender {
			// The sender already holds the sent copy of this message.
			continue
		}
		copyRow := &models.Message{
			Owner:      addr,
			Sender:     c.sender,
			Recipients: c.recipients,
			Cc:         c.cc,
			// Bcc stays empty on every non-sender copy so bcc addresses
			// are never inferable from another participant's row.
			Subject:       c.subject,
			Body:          body,
			Folder:        inboxFolder,
			SentAt:        sentAt,
			InReplyTo:     c.inReplyTo,
			ForwardedFrom: c.forwardedFrom,
		}
		if err := p.messages.CreateWithAttachments(ctx, copyRow, toAttachmentRows(c.attachments)); err != nil {
			p.events.PartialDelivery(senderCopy.ID, c.subject, addr, err)
			failed = true
			continue
		}
		p.notify(addr, Notification{
			MessageID:   copyRow.ID,
			Sender:      c.sender,
			Subject:     c.subject,
			SentAt:      sentAt,
			SpamVerdict: verdict,
		})
	}

	if c.expandReplies && !verdict.IsSpam() {
		p.expandAutoReplies(ctx, c, senderCopy, sentAt)
	}

	if failed {
		return senderCopy, apperrors.ErrDeliveryFailed
	}
	return senderCopy, nil
}

// expandAutoReplies synthesizes one reply pair per primary recipient with
// auto-reply enabled. Auto-replies are single-hop: the synthesized reply is
// delivered directly and never re-enters auto-reply evaluation.
func (p *Pipeline) expandAutoReplies(ctx context.Context, c composed, senderCopy *models.Message, sentAt time.Time) {
	for _, addr := range dedupe(c.recipients) {
		if addr == c.sender {
			continue
		}
		// Read the configuration fresh at delivery time.
		reply, err := p.resolver.AutoReply(ctx, addr)
		if err != nil || !reply.Enabled {
			continue
		}

		replySubj := "Re: " + c.subject
		replyAt := time.Now()
		inReplyTo := senderCopy.ID

		sentRow := &models.Message{
			Owner:      addr,
			Sender:     addr,
			Recipients: []string{c.sender},
			Subject:    replySubj,
			Body:       reply.Message,
			Folder:     models.FolderSent,
			SentAt:     replyAt,
			InReplyTo:  &inReplyTo,
		}
		if err := p.messages.Create(ctx, sentRow); err != nil {
			p.events.PartialDelivery(senderCopy.ID, replySubj, addr, err)
			continue
		}

		inboxRow := &models.Message{
			Owner:      c.sender,
			Sender:     addr,
			Recipients: []string{c.sender},
			Subject:    replySubj,
			Body:       reply.Message,
			Folder:     models.FolderInbox,
			SentAt:     replyAt,
			InReplyTo:  &inReplyTo,
		}
		if err := p.messages.Create(ctx, inboxRow); err != nil {
			p.events.PartialDelivery(senderCopy.ID, replySubj, c.sender, err)
			continue
		}

		p.notify(c.sender, Notification{
			MessageID:   inboxRow.ID,
			Sender:      addr,
			Subject:     replySubj,
			SentAt:      replyAt,
			SpamVerdict: spam.VerdictNotSpam,
		})
	}
}

// notify emits a best-effort notification. Failures are logged, never
// propagated.
func (p *Pipeline) notify(identityAddr string, n Notification) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.NotifyNewMessage(identityAddr, n); err != nil {
		p.events.NotificationDropped(identityAddr, n.MessageID, err.Error())
	}
}

// replySubject prefixes "Re: " unless the subject already carries it.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(subject)), "re:") {
		return subject
	}
	return "Re: " + subject
}

// normalizeAddressSet trims, lower-cases, deduplicates and validates a set
// of addresses. An empty result fails when the set is required.
func normalizeAddressSet(field string, addresses []string, required bool) ([]string, error) {
	out := dedupe(trimAll(addresses))
	if required && len(out) == 0 {
		return nil, apperrors.NewValidationError(field, "at least one recipient is required")
	}
	for _, addr := range out {
		if err := validator.ValidateEmail(addr); err != nil {
			return nil, apperrors.NewValidationError(field, fmt.Sprintf("invalid address %q", addr))
		}
	}
	return out, nil
}

// trimAll lower-cases and trims entries, dropping empties.
func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// dedupe removes duplicates preserving first-seen order.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// toAttachmentRows converts transport refs to fresh attachment rows.
func toAttachmentRows(refs []models.AttachmentRef) []models.Attachment {
	rows := make([]models.Attachment, 0, len(refs))
	for _, r := range refs {
		rows = append(rows, models.Attachment{
			Filename:    r.Filename,
			ContentType: r.ContentType,
			StorageURL:  r.StorageURL,
			SizeBytes:   r.SizeBytes,
		})
	}
	return rows
}
