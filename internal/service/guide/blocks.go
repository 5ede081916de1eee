package guide

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"guidepost/internal/domain"
	models "guidepost/internal/domain/models/guides"
	guidesSvc "guidepost/internal/domain/services/guides"
)

// ApplyBlockOp applies one block mutation and persists the updated tree. On
// any rejection the stored guide is left unchanged.
func (s *guideService) ApplyBlockOp(ctx context.Context, id string, op *guidesSvc.BlockOp) (*models.Guide, error) {
	guide, err := s.guideRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := applyBlockOp(guide.Blocks, op)
	if err != nil {
		return nil, err
	}

	guide.Blocks = updated
	guide.UpdatedAt = time.Now()

	if err := s.guideRepo.Update(ctx, guide); err != nil {
		return nil, err
	}

	s.logger.Info("guide blocks changed",
		"id", guide.ID,
		"op", string(op.Op),
		"block_id", op.BlockID,
		"parent_id", op.ParentID,
	)

	return guide, nil
}

// applyBlockOp dispatches one operation against the tree. All validation runs
// before any mutation, so a returned error means the tree was not touched.
func applyBlockOp(blocks []models.Block, op *guidesSvc.BlockOp) ([]models.Block, error) {
	switch op.Op {
	case guidesSvc.BlockOpInsert:
		return insertOp(blocks, op)
	case guidesSvc.BlockOpRemove:
		return removeOp(blocks, op)
	case guidesSvc.BlockOpMove:
		return moveOp(blocks, op)
	default:
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown block op %q", op.Op)}
	}
}

func insertOp(blocks []models.Block, op *guidesSvc.BlockOp) ([]models.Block, error) {
	if op.Block == nil {
		return nil, &domain.ValidationError{Message: "insert requires a block"}
	}
	if op.Block.Type == "" {
		return nil, &domain.ValidationError{Message: "block type is required"}
	}

	block := *op.Block
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	block.Children = mintBlockIDs(block.Children)

	if _, ok := locateParent(blocks, block.ID, ""); ok {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("block %s already exists", block.ID)}
	}

	updated, ok := insertBlock(blocks, op.ParentID, op.Index, block)
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("parent block %s not found", op.ParentID)}
	}
	return updated, nil
}

func removeOp(blocks []models.Block, op *guidesSvc.BlockOp) ([]models.Block, error) {
	if op.BlockID == "" {
		return nil, &domain.ValidationError{Message: "remove requires block_id"}
	}
	updated, ok := removeBlock(blocks, op.BlockID)
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("block %s not found", op.BlockID)}
	}
	return updated, nil
}

// moveOp repositions a block inside its current parent's child list. A
// ParentID that does not name the block's actual parent is a cross-scope
// move, which is not supported: sections own their steps, and tearing a step
// out of one scope into another has no defined semantics for interactive
// content.
func moveOp(blocks []models.Block, op *guidesSvc.BlockOp) ([]models.Block, error) {
	if op.BlockID == "" {
		return nil, &domain.ValidationError{Message: "move requires block_id"}
	}

	actualParent, ok := locateParent(blocks, op.BlockID, "")
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("block %s not found", op.BlockID)}
	}
	if op.ParentID != actualParent {
		return nil, &domain.ValidationError{Message: "cross-section moves are not supported"}
	}

	return moveInParent(blocks, actualParent, op.BlockID, op.Index), nil
}

// locateParent returns the parent ID of blockID, "" when it sits in the root
// list. The second return reports whether the block exists at all.
func locateParent(blocks []models.Block, blockID, parentID string) (string, bool) {
	for i := range blocks {
		if blocks[i].ID == blockID {
			return parentID, true
		}
		if found, ok := locateParent(blocks[i].Children, blockID, blocks[i].ID); ok {
			return found, ok
		}
	}
	return "", false
}

// insertBlock places block at index under parentID ("" = root list).
func insertBlock(blocks []models.Block, parentID string, index int, block models.Block) ([]models.Block, bool) {
	if parentID == "" {
		return insertAt(blocks, index, block), true
	}
	for i := range blocks {
		if blocks[i].ID == parentID {
			blocks[i].Children = insertAt(blocks[i].Children, index, block)
			return blocks, true
		}
		if updated, ok := insertBlock(blocks[i].Children, parentID, index, block); ok {
			blocks[i].Children = updated
			return blocks, true
		}
	}
	return blocks, false
}

func removeBlock(blocks []models.Block, blockID string) ([]models.Block, bool) {
	for i := range blocks {
		if blocks[i].ID == blockID {
			return append(blocks[:i], blocks[i+1:]...), true
		}
		if updated, ok := removeBlock(blocks[i].Children, blockID); ok {
			blocks[i].Children = updated
			return blocks, true
		}
	}
	return blocks, false
}

func moveInParent(blocks []models.Block, parentID, blockID string, index int) []models.Block {
	if parentID == "" {
		return moveWithin(blocks, blockID, index)
	}
	var walk func(list []models.Block) bool
	walk = func(list []models.Block) bool {
		for i := range list {
			if list[i].ID == parentID {
				list[i].Children = moveWithin(list[i].Children, blockID, index)
				return true
			}
			if walk(list[i].Children) {
				return true
			}
		}
		return false
	}
	walk(blocks)
	return blocks
}

// moveWithin removes the block from list and reinserts it at index, clamped
// to the list bounds after removal.
func moveWithin(list []models.Block, blockID string, index int) []models.Block {
	for i := range list {
		if list[i].ID != blockID {
			continue
		}
		block := list[i]
		list = append(list[:i], list[i+1:]...)
		return insertAt(list, index, block)
	}
	return list
}

// insertAt inserts block at index, clamping out-of-range indexes to the ends.
func insertAt(list []models.Block, index int, block models.Block) []models.Block {
	if index < 0 {
		index = 0
	}
	if index > len(list) {
		index = len(list)
	}
	list = append(list, models.Block{})
	copy(list[index+1:], list[index:])
	list[index] = block
	return list
}
