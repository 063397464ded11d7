package usecase

import (
	"context"
	"time"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/domain"
	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
)

type addCall struct {
	dn         string
	attributes map[string][]string
}

type modifyCall struct {
	dn      string
	changes []port.AttributeChange
}

// fakeDirectory records every operation. searchFn, when set, overrides the
// static entries slice.
type fakeDirectory struct {
	entries   []port.Entry
	searchFn  func(req port.SearchRequest) ([]port.Entry, error)
	searchErr error
	addErr    error
	modifyErr error
	deleteErr error

	searches []port.SearchRequest
	added    []addCall
	modified []modifyCall
	deleted  []string
	closed   bool
}

func (d *fakeDirectory) Search(_ context.Context, req port.SearchRequest) ([]port.Entry, error) {
	d.searches = append(d.searches, req)
	if d.searchFn != nil {
		return d.searchFn(req)
	}
	if d.searchErr != nil {
		return nil, d.searchErr
	}
	return d.entries, nil
}

func (d *fakeDirectory) AddEntry(_ context.Context, dn string, attributes map[string][]string) error {
	d.added = append(d.added, addCall{dn: dn, attributes: attributes})
	return d.addErr
}

func (d *fakeDirectory) Modify(_ context.Context, dn string, changes []port.AttributeChange) error {
	d.modified = append(d.modified, modifyCall{dn: dn, changes: changes})
	return d.modifyErr
}

func (d *fakeDirectory) Delete(_ context.Context, dn string) error {
	if d.deleteErr != nil {
		return d.deleteErr
	}
	d.deleted = append(d.deleted, dn)
	return nil
}

func (d *fakeDirectory) Close() error {
	d.closed = true
	return nil
}

type verifyCall struct {
	dn       string
	password string
}

type fakeConnector struct {
	dir       *fakeDirectory
	bindErr   error
	verifyErr error

	binds    int
	verified []verifyCall
}

func (c *fakeConnector) AdminBind(context.Context) (port.Directory, error) {
	if c.bindErr != nil {
		return nil, c.bindErr
	}
	c.binds++
	if c.dir == nil {
		c.dir = &fakeDirectory{}
	}
	return c.dir, nil
}

func (c *fakeConnector) VerifyCredentials(_ context.Context, bindDN, password string) error {
	c.verified = append(c.verified, verifyCall{dn: bindDN, password: password})
	return c.verifyErr
}

type scheduledNotice struct {
	fullName string
	at       time.Time
}

type completedNotice struct {
	commonName string
	at         time.Time
}

type fakeNotifier struct {
	created   []port.CreationNotice
	modified  []port.ModificationNotice
	deleted   []string
	scheduled []scheduledNotice
	completed []completedNotice
	err       error
}

func (n *fakeNotifier) AccountCreated(_ context.Context, notice port.CreationNotice) error {
	n.created = append(n.created, notice)
	return n.err
}

func (n *fakeNotifier) AccountModified(_ context.Context, notice port.ModificationNotice) error {
	n.modified = append(n.modified, notice)
	return n.err
}

func (n *fakeNotifier) AccountDeleted(_ context.Context, fullName string) error {
	n.deleted = append(n.deleted, fullName)
	return n.err
}

func (n *fakeNotifier) DeletionScheduled(_ context.Context, fullName string, at time.Time) error {
	n.scheduled = append(n.scheduled, scheduledNotice{fullName: fullName, at: at})
	return n.err
}

func (n *fakeNotifier) DeletionCompleted(_ context.Context, commonName string, at time.Time) error {
	n.completed = append(n.completed, completedNotice{commonName: commonName, at: at})
	return n.err
}

type deletedEvent struct {
	dn   string
	mode domain.DeletionMode
}

type fakePublisher struct {
	created   []domain.AccountCreatedEvent
	modified  []domain.AccountModifiedEvent
	scheduled []domain.DeletionScheduledEvent
	deleted   []deletedEvent
	err       error
}

func (p *fakePublisher) PublishAccountCreated(_ context.Context, event domain.AccountCreatedEvent) error {
	p.created = append(p.created, event)
	return p.err
}

func (p *fakePublisher) PublishAccountModified(_ context.Context, event domain.AccountModifiedEvent) error {
	p.modified = append(p.modified, event)
	return p.err
}

func (p *fakePublisher) PublishDeletionScheduled(_ context.Context, event domain.DeletionScheduledEvent) error {
	p.scheduled = append(p.scheduled, event)
	return p.err
}

func (p *fakePublisher) PublishAccountDeleted(_ context.Context, event domain.AccountDeletedEvent) error {
	p.deleted = append(p.deleted, deletedEvent{dn: event.DN, mode: event.Mode})
	return p.err
}
