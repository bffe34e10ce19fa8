package repository

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/goalpost-app/goalpost/internal/model"
)

// Fixture is the in-memory implementation of every store interface. It is
// selected once at construction (tests, rundaily -fixture) and mirrors the
// SQL semantics exactly, including unique-key conflicts on the reservation
// tables. It replaces the old implicit demo-mode branching: callers hold an
// interface and never know which implementation is behind it.
type Fixture struct {
	mu sync.Mutex

	goals       map[string]*model.Goal
	entries     map[string]*model.DailyLogEntry    // goalID+"|"+dateKey
	members     map[string]*model.SupportMember
	escalations map[string]*model.EscalationRecord // goalID+"|"+dateKey+"|"+tier
	milestones  map[string]*model.MilestoneEvent   // goalID+"|"+length
	receipts    []*model.DeliveryReceipt
	userContacts map[string]*model.UserContact

	escalationsByID map[string]*model.EscalationRecord
	milestonesByID  map[string]*model.MilestoneEvent
}

func NewFixture() *Fixture {
	return &Fixture{
		goals:           make(map[string]*model.Goal),
		entries:         make(map[string]*model.DailyLogEntry),
		members:         make(map[string]*model.SupportMember),
		escalations:     make(map[string]*model.EscalationRecord),
		milestones:      make(map[string]*model.MilestoneEvent),
		escalationsByID: make(map[string]*model.EscalationRecord),
		milestonesByID:  make(map[string]*model.MilestoneEvent),
		userContacts:    make(map[string]*model.UserContact),
	}
}

func dateKey(t time.Time) string {
	return model.DateOnly(t).Format("2006-01-02")
}

// Goals returns the fixture as a GoalRepository.
func (f *Fixture) Goals() GoalRepository { return (*fixtureGoals)(f) }

// LogEntries returns the fixture as a LogEntryRepository.
func (f *Fixture) LogEntries() LogEntryRepository { return (*fixtureEntries)(f) }

// Members returns the fixture as a SupportMemberRepository.
func (f *Fixture) Members() SupportMemberRepository { return (*fixtureMembers)(f) }

// Escalations returns the fixture as an EscalationRepository.
func (f *Fixture) Escalations() EscalationRepository { return (*fixtureEscalations)(f) }

// Milestones returns the fixture as a MilestoneRepository.
func (f *Fixture) Milestones() MilestoneRepository { return (*fixtureMilestones)(f) }

// Receipts returns the fixture as a ReceiptRepository.
func (f *Fixture) Receipts() ReceiptRepository { return (*fixtureReceipts)(f) }

type fixtureGoals Fixture

func (f *fixtureGoals) Create(goal *model.Goal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := *goal
	f.goals[goal.ID] = &g
	return nil
}

func (f *fixtureGoals) ByID(userID, goalID string) (*model.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.goals[goalID]
	if !ok || g.UserID != userID {
		return nil, ErrGoalNotFound
	}
	out := *g
	return &out, nil
}

func (f *fixtureGoals) ListActiveGoals() ([]*model.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var goals []*model.Goal
	for _, g := range f.goals {
		if g.Status == model.GoalStatusActive {
			out := *g
			goals = append(goals, &out)
		}
	}
	sort.Slice(goals, func(i, j int) bool {
		if goals[i].UserID != goals[j].UserID {
			return goals[i].UserID < goals[j].UserID
		}
		return goals[i].CreatedAt.Before(goals[j].CreatedAt)
	})
	return goals, nil
}

func (f *fixtureGoals) Goals(userID string) ([]*model.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var goals []*model.Goal
	for _, g := range f.goals {
		if g.UserID == userID {
			out := *g
			goals = append(goals, &out)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].UpdatedAt.After(goals[j].UpdatedAt) })
	return goals, nil
}

func (f *fixtureGoals) Update(goal *model.Goal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.goals[goal.ID]
	if !ok || g.UserID != goal.UserID {
		return ErrGoalNotFound
	}
	updated := *goal
	updated.UpdatedAt = time.Now()
	f.goals[goal.ID] = &updated
	return nil
}

type fixtureEntries Fixture

func (f *fixtureEntries) Create(entry *model.DailyLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := *entry
	e.EntryDate = model.DateOnly(entry.EntryDate)
	f.entries[entry.GoalID+"|"+dateKey(entry.EntryDate)] = &e
	return nil
}

func (f *fixtureEntries) Entry(goalID string, date time.Time) (*model.DailyLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[goalID+"|"+dateKey(date)]
	if !ok {
		return nil, ErrLogEntryNotFound
	}
	out := *e
	return &out, nil
}

func (f *fixtureEntries) EntriesInRange(goalID string, from, to time.Time) ([]*model.DailyLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []*model.DailyLogEntry
	lo, hi := model.DateOnly(from), model.DateOnly(to)
	for _, e := range f.entries {
		if e.GoalID != goalID || e.EntryDate.Before(lo) || e.EntryDate.After(hi) {
			continue
		}
		out := *e
		entries = append(entries, &out)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].EntryDate.Before(entries[j].EntryDate) })
	return entries, nil
}

type fixtureMembers Fixture

func (f *fixtureMembers) Create(member *model.SupportMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := *member
	f.members[member.ID] = &m
	return nil
}

func (f *fixtureMembers) ByID(memberID string) (*model.SupportMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberID]
	if !ok {
		return nil, ErrSupportMemberNotFound
	}
	out := *m
	return &out, nil
}

func (f *fixtureMembers) ListFor(userID string) ([]*model.SupportMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var members []*model.SupportMember
	for _, m := range f.members {
		if m.UserID == userID {
			out := *m
			members = append(members, &out)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].CreatedAt.Before(members[j].CreatedAt) })
	return members, nil
}

func (f *fixtureMembers) UpdateConsent(memberID, consentState string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberID]
	if !ok {
		return ErrSupportMemberNotFound
	}
	m.ConsentState = consentState
	m.Active = active
	m.UpdatedAt = time.Now()
	return nil
}

func (f *fixtureMembers) RecordContact(memberID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberID]
	if !ok {
		return ErrSupportMemberNotFound
	}
	m.ContactCount++
	t := at
	m.LastContactedAt = &t
	m.UpdatedAt = time.Now()
	return nil
}

func (f *fixtureMembers) MarkChannelUnusable(memberID, channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberID]
	if !ok {
		return ErrSupportMemberNotFound
	}
	switch channel {
	case model.ChannelText, model.ChannelVoice:
		m.PhoneUnusable = true
	case model.ChannelEmail:
		m.EmailUnusable = true
	}
	m.UpdatedAt = time.Now()
	return nil
}

type fixtureEscalations Fixture

func (f *fixtureEscalations) Reserve(record *model.EscalationRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := record.GoalID + "|" + dateKey(record.RecordDate) + "|" + record.Tier
	if _, exists := f.escalations[key]; exists {
		return false, nil
	}
	r := *record
	r.RecordDate = model.DateOnly(record.RecordDate)
	f.escalations[key] = &r
	f.escalationsByID[r.ID] = &r
	return true, nil
}

func (f *fixtureEscalations) SettleOutcome(recordID, outcome string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.escalationsByID[recordID]
	if !ok {
		return ErrEscalationNotFound
	}
	r.Outcome = outcome
	return nil
}

func (f *fixtureEscalations) ByID(recordID string) (*model.EscalationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.escalationsByID[recordID]
	if !ok {
		return nil, ErrEscalationNotFound
	}
	out := *r
	return &out, nil
}

func (f *fixtureEscalations) ByGoal(goalID string) ([]*model.EscalationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var records []*model.EscalationRecord
	for _, r := range f.escalations {
		if r.GoalID == goalID {
			out := *r
			records = append(records, &out)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].RecordDate.Equal(records[j].RecordDate) {
			return records[i].RecordDate.After(records[j].RecordDate)
		}
		return records[i].Tier < records[j].Tier
	})
	return records, nil
}

func (f *fixtureEscalations) ByGoalAndDate(goalID string, date time.Time) ([]*model.EscalationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var records []*model.EscalationRecord
	for _, r := range f.escalations {
		if r.GoalID == goalID && model.SameDate(r.RecordDate, date) {
			out := *r
			records = append(records, &out)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Tier < records[j].Tier })
	return records, nil
}

type fixtureMilestones Fixture

func (f *fixtureMilestones) Reserve(event *model.MilestoneEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := event.GoalID + "|" + strconv.Itoa(event.StreakLength)
	if _, exists := f.milestones[key]; exists {
		return false, nil
	}
	e := *event
	e.FiredDate = model.DateOnly(event.FiredDate)
	f.milestones[key] = &e
	f.milestonesByID[e.ID] = &e
	return true, nil
}

func (f *fixtureMilestones) SettleOutcome(eventID, outcome string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.milestonesByID[eventID]
	if !ok {
		return ErrMilestoneNotFound
	}
	e.Outcome = outcome
	return nil
}

func (f *fixtureMilestones) ByGoal(goalID string) ([]*model.MilestoneEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []*model.MilestoneEvent
	for _, e := range f.milestones {
		if e.GoalID == goalID {
			out := *e
			events = append(events, &out)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StreakLength < events[j].StreakLength })
	return events, nil
}

type fixtureReceipts Fixture

func (f *fixtureReceipts) Create(receipt *model.DeliveryReceipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := *receipt
	f.receipts = append(f.receipts, &r)
	return nil
}

func (f *fixtureReceipts) ByEscalation(escalationID string) ([]*model.DeliveryReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var receipts []*model.DeliveryReceipt
	for _, r := range f.receipts {
		if r.EscalationID != nil && *r.EscalationID == escalationID {
			out := *r
			receipts = append(receipts, &out)
		}
	}
	return receipts, nil
}

func (f *fixtureReceipts) ByMilestone(milestoneID string) ([]*model.DeliveryReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var receipts []*model.DeliveryReceipt
	for _, r := range f.receipts {
		if r.MilestoneID != nil && *r.MilestoneID == milestoneID {
			out := *r
			receipts = append(receipts, &out)
		}
	}
	return receipts, nil
}

type fixtureUserContacts Fixture

// UserContacts returns the fixture as a UserContactRepository.
func (f *Fixture) UserContacts() UserContactRepository { return (*fixtureUserContacts)(f) }

func (f *fixtureUserContacts) Upsert(contact *model.UserContact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *contact
	c.UpdatedAt = time.Now()
	f.userContacts[contact.UserID] = &c
	return nil
}

func (f *fixtureUserContacts) ByUser(userID string) (*model.UserContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.userContacts[userID]
	if !ok {
		return nil, ErrUserContactNotFound
	}
	out := *c
	return &out, nil
}
