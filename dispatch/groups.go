// SPDX-License-Identifier: EPL-2.0

package dispatch

import "github.com/ik5/audmgr/profile"

const (
	GroupMaster profile.Group = "master"
	GroupUI     profile.Group = "ui"
)

// GroupPolicy decides which channel groups follow the global pause.
// Groups are pausable unless flagged otherwise. The zero value treats
// every group as pausable.
type GroupPolicy struct {
	exempt map[profile.Group]bool
}

// NewGroupPolicy returns a policy where the given groups keep playing
// while paused.
func NewGroupPolicy(nonPausable ...profile.Group) GroupPolicy {
	g := GroupPolicy{exempt: make(map[profile.Group]bool, len(nonPausable))}
	for _, n := range nonPausable {
		g.exempt[n] = true
	}
	return g
}

// DefaultGroupPolicy exempts the master and ui groups.
func DefaultGroupPolicy() GroupPolicy {
	return NewGroupPolicy(GroupMaster, GroupUI)
}

func (g GroupPolicy) Pausable(group profile.Group) bool {
	return !g.exempt[group]
}

// SetPausable flags one group.
func (g *GroupPolicy) SetPausable(group profile.Group, pausable bool) {
	if pausable {
		delete(g.exempt, group)
		return
	}
	if g.exempt == nil {
		g.exempt = make(map[profile.Group]bool)
	}
	g.exempt[group] = true
}
