package guide

import (
	"errors"
	"reflect"
	"testing"

	"guidepost/internal/domain"
	models "guidepost/internal/domain/models/guides"
	guidesSvc "guidepost/internal/domain/services/guides"
)

// sampleTree builds a small guide tree: a heading, an interactive section
// with two steps, and a trailing code block.
func sampleTree() []models.Block {
	return []models.Block{
		{ID: "h1", Type: "h1", Children: []models.Block{
			{ID: "h1-text", Type: models.BlockTypeText, Text: "Title"},
		}},
		{ID: "sec", Type: "interactive-section", Children: []models.Block{
			{ID: "step1", Type: "interactive-step"},
			{ID: "step2", Type: "interactive-step"},
		}},
		{ID: "code", Type: "code-block"},
	}
}

func rootIDs(blocks []models.Block) []string {
	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}
	return ids
}

func childIDs(blocks []models.Block, parentID string) []string {
	for i := range blocks {
		if blocks[i].ID == parentID {
			return rootIDs(blocks[i].Children)
		}
		if ids := childIDs(blocks[i].Children, parentID); ids != nil {
			return ids
		}
	}
	return nil
}

func TestApplyBlockOpInsert(t *testing.T) {
	tests := []struct {
		name     string
		op       *guidesSvc.BlockOp
		wantRoot []string
		wantSec  []string
	}{
		{
			name: "insert at root index",
			op: &guidesSvc.BlockOp{
				Op:    guidesSvc.BlockOpInsert,
				Index: 1,
				Block: &models.Block{ID: "new", Type: "p"},
			},
			wantRoot: []string{"h1", "new", "sec", "code"},
			wantSec:  []string{"step1", "step2"},
		},
		{
			name: "insert under section",
			op: &guidesSvc.BlockOp{
				Op:       guidesSvc.BlockOpInsert,
				ParentID: "sec",
				Index:    0,
				Block:    &models.Block{ID: "step0", Type: "interactive-step"},
			},
			wantRoot: []string{"h1", "sec", "code"},
			wantSec:  []string{"step0", "step1", "step2"},
		},
		{
			name: "negative index clamps to front",
			op: &guidesSvc.BlockOp{
				Op:    guidesSvc.BlockOpInsert,
				Index: -5,
				Block: &models.Block{ID: "new", Type: "p"},
			},
			wantRoot: []string{"new", "h1", "sec", "code"},
			wantSec:  []string{"step1", "step2"},
		},
		{
			name: "oversized index clamps to end",
			op: &guidesSvc.BlockOp{
				Op:    guidesSvc.BlockOpInsert,
				Index: 99,
				Block: &models.Block{ID: "new", Type: "p"},
			},
			wantRoot: []string{"h1", "sec", "code", "new"},
			wantSec:  []string{"step1", "step2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyBlockOp(sampleTree(), tt.op)
			if err != nil {
				t.Fatalf("applyBlockOp() error = %v", err)
			}
			if !reflect.DeepEqual(rootIDs(got), tt.wantRoot) {
				t.Errorf("root order = %v, want %v", rootIDs(got), tt.wantRoot)
			}
			if !reflect.DeepEqual(childIDs(got, "sec"), tt.wantSec) {
				t.Errorf("section order = %v, want %v", childIDs(got, "sec"), tt.wantSec)
			}
		})
	}
}

func TestApplyBlockOpInsertMintsID(t *testing.T) {
	got, err := applyBlockOp(sampleTree(), &guidesSvc.BlockOp{
		Op:    guidesSvc.BlockOpInsert,
		Index: 0,
		Block: &models.Block{Type: "p", Children: []models.Block{{Type: models.BlockTypeText, Text: "hi"}}},
	})
	if err != nil {
		t.Fatalf("applyBlockOp() error = %v", err)
	}
	if got[0].ID == "" {
		t.Errorf("inserted block has no minted ID")
	}
	if got[0].Children[0].ID == "" {
		t.Errorf("inserted child block has no minted ID")
	}
}

func TestApplyBlockOpRemove(t *testing.T) {
	got, err := applyBlockOp(sampleTree(), &guidesSvc.BlockOp{
		Op:      guidesSvc.BlockOpRemove,
		BlockID: "step1",
	})
	if err != nil {
		t.Fatalf("applyBlockOp() error = %v", err)
	}
	if want := []string{"step2"}; !reflect.DeepEqual(childIDs(got, "sec"), want) {
		t.Errorf("section order = %v, want %v", childIDs(got, "sec"), want)
	}
}

func TestApplyBlockOpMove(t *testing.T) {
	tests := []struct {
		name     string
		op       *guidesSvc.BlockOp
		wantRoot []string
		wantSec  []string
	}{
		{
			name: "move root block to front",
			op: &guidesSvc.BlockOp{
				Op:      guidesSvc.BlockOpMove,
				BlockID: "code",
				Index:   0,
			},
			wantRoot: []string{"code", "h1", "sec"},
			wantSec:  []string{"step1", "step2"},
		},
		{
			name: "move step within its section",
			op: &guidesSvc.BlockOp{
				Op:       guidesSvc.BlockOpMove,
				BlockID:  "step2",
				ParentID: "sec",
				Index:    0,
			},
			wantRoot: []string{"h1", "sec", "code"},
			wantSec:  []string{"step2", "step1"},
		},
		{
			name: "move index clamps to end",
			op: &guidesSvc.BlockOp{
				Op:       guidesSvc.BlockOpMove,
				BlockID:  "step1",
				ParentID: "sec",
				Index:    50,
			},
			wantRoot: []string{"h1", "sec", "code"},
			wantSec:  []string{"step2", "step1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyBlockOp(sampleTree(), tt.op)
			if err != nil {
				t.Fatalf("applyBlockOp() error = %v", err)
			}
			if !reflect.DeepEqual(rootIDs(got), tt.wantRoot) {
				t.Errorf("root order = %v, want %v", rootIDs(got), tt.wantRoot)
			}
			if !reflect.DeepEqual(childIDs(got, "sec"), tt.wantSec) {
				t.Errorf("section order = %v, want %v", childIDs(got, "sec"), tt.wantSec)
			}
		})
	}
}

func TestApplyBlockOpCrossScopeMoveRejected(t *testing.T) {
	tests := []struct {
		name string
		op   *guidesSvc.BlockOp
	}{
		{
			name: "step out of its section",
			op: &guidesSvc.BlockOp{
				Op:      guidesSvc.BlockOpMove,
				BlockID: "step1",
				Index:   0, // ParentID empty names the root list
			},
		},
		{
			name: "root block into a section",
			op: &guidesSvc.BlockOp{
				Op:       guidesSvc.BlockOpMove,
				BlockID:  "code",
				ParentID: "sec",
				Index:    0,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := sampleTree()
			_, err := applyBlockOp(tree, tt.op)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("applyBlockOp() error = %v, want ErrValidation", err)
			}
			if got := err.Error(); got != "cross-section moves are not supported" {
				t.Errorf("error message = %q, want %q", got, "cross-section moves are not supported")
			}
			if !reflect.DeepEqual(tree, sampleTree()) {
				t.Errorf("tree mutated by rejected move")
			}
		})
	}
}

func TestApplyBlockOpErrors(t *testing.T) {
	tests := []struct {
		name    string
		op      *guidesSvc.BlockOp
		wantErr error
	}{
		{
			name:    "insert without block",
			op:      &guidesSvc.BlockOp{Op: guidesSvc.BlockOpInsert},
			wantErr: domain.ErrValidation,
		},
		{
			name: "insert without type",
			op: &guidesSvc.BlockOp{
				Op:    guidesSvc.BlockOpInsert,
				Block: &models.Block{ID: "x"},
			},
			wantErr: domain.ErrValidation,
		},
		{
			name: "insert duplicate id",
			op: &guidesSvc.BlockOp{
				Op:    guidesSvc.BlockOpInsert,
				Block: &models.Block{ID: "step1", Type: "p"},
			},
			wantErr: domain.ErrValidation,
		},
		{
			name: "insert under missing parent",
			op: &guidesSvc.BlockOp{
				Op:       guidesSvc.BlockOpInsert,
				ParentID: "ghost",
				Block:    &models.Block{Type: "p"},
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "remove without id",
			op:      &guidesSvc.BlockOp{Op: guidesSvc.BlockOpRemove},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "remove missing block",
			op:      &guidesSvc.BlockOp{Op: guidesSvc.BlockOpRemove, BlockID: "ghost"},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "move missing block",
			op:      &guidesSvc.BlockOp{Op: guidesSvc.BlockOpMove, BlockID: "ghost"},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "unknown op",
			op:      &guidesSvc.BlockOp{Op: "replace"},
			wantErr: domain.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := applyBlockOp(sampleTree(), tt.op)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("applyBlockOp() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
