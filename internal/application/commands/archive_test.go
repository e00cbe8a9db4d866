package commands

import (
	"context"
	"errors"
	"testing"

	"jupiter/internal/application"
	"jupiter/internal/domain"
	"jupiter/internal/reconcile"
	"jupiter/internal/testkit"
)

func TestArchiveCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		family  domain.Family
		refID   string
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid inbox task",
			family: domain.FamilyInboxTask,
			refID:  "12",
		},
		{
			name:    "empty ref id",
			family:  domain.FamilyInboxTask,
			refID:   "",
			wantErr: true,
			errMsg:  "ref ID is required",
		},
		{
			name:    "non numeric ref id",
			family:  domain.FamilyHabit,
			refID:   "gym",
			wantErr: true,
			errMsg:  "expected ref ID",
		},
		{
			name:    "projects are labels",
			family:  domain.FamilyProject,
			refID:   "1",
			wantErr: true,
			errMsg:  "cannot be archived",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewArchiveCommand(nil, tt.family, tt.refID)
			err := cmd.Validate()

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.errMsg)
					return
				}
				if !contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestArchiveCommand_ProjectIsArchiveError(t *testing.T) {
	err := NewArchiveCommand(nil, domain.FamilyProject, "1").Validate()
	if !errors.Is(err, application.ErrCannotArchive) {
		t.Errorf("expected ErrCannotArchive, got %v", err)
	}
}

func TestArchiveCommand_NotFound(t *testing.T) {
	_, env := newEnv(t)

	_, err := NewArchiveCommand(env, domain.FamilyInboxTask, "404").Execute(context.Background())
	if !errors.Is(err, application.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestArchiveCommand_HabitTakesItsTasks(t *testing.T) {
	kit, env := newEnv(t)
	ctx := context.Background()

	habit, err := NewHabitCreateCommand(env, HabitArgs{
		Name:   "Hit the gym",
		Params: GenParamsArgs{Period: "weekly", Eisen: "regular"},
	}).Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gen, err := NewGenCommand(env, []string{"weekly"}, []string{"habits"}, "2022-05-20").Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Created != 1 {
		t.Fatalf("expected 1 generated task, got %d", gen.Created)
	}
	task := gen.Tasks[0]

	result, err := NewArchiveCommand(env, domain.FamilyHabit, habit.Leaf.RefID.String()).Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Counts.Archived != 2 {
		t.Errorf("expected habit and task archived, got %d", result.Counts.Archived)
	}
	if !testkit.Load(kit, reconcile.InboxTaskFamily, task.RefID).Archived {
		t.Error("expected the generated task to be archived")
	}
	if kit.Link(domain.LinkItem, kit.Inbox().Key.Leaf(task.RefID)).IsFound() {
		t.Error("expected the task link to be dropped")
	}
}

func TestRemoveCommand_DeletesLocalRows(t *testing.T) {
	kit, env := newEnv(t)
	ctx := context.Background()

	created, err := NewPersonCreateCommand(env, PersonArgs{Name: "Ada", Birthday: "10 Dec"}).Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := NewRemoveCommand(env, domain.FamilyPerson, created.Leaf.RefID.String()).Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !contains(result.Message, "Removed") {
		t.Errorf("unexpected message %q", result.Message)
	}
	if testkit.Exists(kit, reconcile.PersonFamily, created.Leaf.RefID) {
		t.Error("expected the person row to be deleted")
	}
}

func TestArchiveCommand_TagLeavesOptions(t *testing.T) {
	kit, env := newEnv(t)
	ctx := context.Background()

	list, err := NewSmartListCreateCommand(env, "Books", "").Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tag, err := NewSmartListTagCreateCommand(env, list.Leaf.RefID.String(), "sci-fi").Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := NewArchiveCommand(env, domain.FamilySmartListTag, tag.Leaf.RefID.String()).Execute(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	coll := reconcile.SmartListCollection(kit.Workspace, list.Leaf)
	link, ok := kit.Link(domain.LinkCollection, coll.Key).Get()
	if !ok {
		t.Fatal("expected the list collection link")
	}
	remote, ok := kit.Remote.Collection(link.RemoteID)
	if !ok {
		t.Fatal("expected the remote collection")
	}
	if _, found := remote.Schema[domain.PropTags].Option("sci-fi"); found {
		t.Error("expected the archived tag option to be gone")
	}
}
