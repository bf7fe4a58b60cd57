package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

func TestFormStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    domain.FormStatus
		to      domain.FormStatus
		allowed bool
	}{
		{domain.FormStatusDraft, domain.FormStatusPending, true},
		{domain.FormStatusPending, domain.FormStatusApproved, true},
		{domain.FormStatusPending, domain.FormStatusRejected, true},
		{domain.FormStatusApproved, domain.FormStatusConfirmed, true},
		{domain.FormStatusRejected, domain.FormStatusConfirmed, true},

		{domain.FormStatusDraft, domain.FormStatusApproved, false},
		{domain.FormStatusDraft, domain.FormStatusConfirmed, false},
		{domain.FormStatusApproved, domain.FormStatusPending, false},
		{domain.FormStatusConfirmed, domain.FormStatusDraft, false},
		{domain.FormStatusConfirmed, domain.FormStatusPending, false},
		{domain.FormStatusConfirmed, domain.FormStatusConfirmed, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestFormStatus_OnlyConfirmedIsTerminal(t *testing.T) {
	assert.True(t, domain.FormStatusConfirmed.IsTerminal())
	for _, s := range []domain.FormStatus{
		domain.FormStatusDraft,
		domain.FormStatusPending,
		domain.FormStatusApproved,
		domain.FormStatusRejected,
	} {
		assert.False(t, s.IsTerminal(), "%s 不应是终态", s)
	}
}

func TestDigitalForm_Transition(t *testing.T) {
	form := &domain.DigitalForm{Status: domain.FormStatusDraft}

	require.NoError(t, form.Transition(domain.FormStatusPending))
	assert.Equal(t, domain.FormStatusPending, form.Status)

	err := form.Transition(domain.FormStatusDraft)
	require.Error(t, err, "不允许回退到 DRAFT")
	assert.Equal(t, domain.FormStatusPending, form.Status, "失败的流转不应改变状态")

	err = form.Transition("ARCHIVED")
	require.Error(t, err, "未知状态应被拒绝")
}

func TestDigitalForm_Path(t *testing.T) {
	form := &domain.DigitalForm{FactoryID: 1, LineID: 2, TeamID: 3, GroupID: 4}
	path := form.Path()
	assert.Equal(t, domain.HierarchyPath{FactoryID: 1, LineID: 2, TeamID: 3, GroupID: 4}, path)
}
