package v1_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tavolahq/tavola/internal/domain"
	"github.com/tavolahq/tavola/internal/placement"
	"github.com/tavolahq/tavola/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeyUserID, userID)
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	projects domain.ProjectRepository
	boards   domain.BoardRepository
	columns  domain.ColumnRepository
	cards    domain.CardRepository
	activity domain.ActivityRepository
}

func (m *mockDataStore) Projects() domain.ProjectRepository  { return m.projects }
func (m *mockDataStore) Boards() domain.BoardRepository      { return m.boards }
func (m *mockDataStore) Columns() domain.ColumnRepository    { return m.columns }
func (m *mockDataStore) Cards() domain.CardRepository        { return m.cards }
func (m *mockDataStore) Activity() domain.ActivityRepository { return m.activity }

// ---------------------------------------------------------------------------
// Mock ProjectRepository
// ---------------------------------------------------------------------------

type mockProjectRepo struct {
	createFunc          func(ctx context.Context, p *domain.Project) error
	getByIDFunc         func(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	getByShortNameFunc  func(ctx context.Context, shortName string) (*domain.Project, error)
	updateFunc          func(ctx context.Context, p *domain.Project) error
	listFunc            func(ctx context.Context) ([]*domain.Project, error)
	shortNameExistsFunc func(ctx context.Context, shortName string) (bool, error)
}

func (m *mockProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	return m.createFunc(ctx, p)
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockProjectRepo) GetByShortName(ctx context.Context, shortName string) (*domain.Project, error) {
	return m.getByShortNameFunc(ctx, shortName)
}

func (m *mockProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	return m.updateFunc(ctx, p)
}

func (m *mockProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	return m.listFunc(ctx)
}

func (m *mockProjectRepo) ShortNameExists(ctx context.Context, shortName string) (bool, error) {
	return m.shortNameExistsFunc(ctx, shortName)
}

// ---------------------------------------------------------------------------
// Mock BoardRepository
// ---------------------------------------------------------------------------

type mockBoardRepo struct {
	createFunc              func(ctx context.Context, b *domain.Board) error
	getByIDFunc             func(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	getByShortNameFunc      func(ctx context.Context, shortName string) (*domain.Board, error)
	listByProjectFunc       func(ctx context.Context, projectID uuid.UUID) ([]*domain.Board, error)
	updateFunc              func(ctx context.Context, b *domain.Board) error
	shortNameExistsFunc     func(ctx context.Context, shortName string) (bool, error)
	nextCardSequenceFunc    func(ctx context.Context, boardID uuid.UUID) (int, error)
	projectShortNameForFunc func(ctx context.Context, boardShortName string) (string, error)
}

func (m *mockBoardRepo) Create(ctx context.Context, b *domain.Board) error {
	return m.createFunc(ctx, b)
}

func (m *mockBoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockBoardRepo) GetByShortName(ctx context.Context, shortName string) (*domain.Board, error) {
	return m.getByShortNameFunc(ctx, shortName)
}

func (m *mockBoardRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Board, error) {
	return m.listByProjectFunc(ctx, projectID)
}

func (m *mockBoardRepo) Update(ctx context.Context, b *domain.Board) error {
	return m.updateFunc(ctx, b)
}

func (m *mockBoardRepo) ShortNameExists(ctx context.Context, shortName string) (bool, error) {
	return m.shortNameExistsFunc(ctx, shortName)
}

func (m *mockBoardRepo) NextCardSequence(ctx context.Context, boardID uuid.UUID) (int, error) {
	return m.nextCardSequenceFunc(ctx, boardID)
}

func (m *mockBoardRepo) ProjectShortNameFor(ctx context.Context, boardShortName string) (string, error) {
	return m.projectShortNameForFunc(ctx, boardShortName)
}

// ---------------------------------------------------------------------------
// Mock ColumnRepository
// ---------------------------------------------------------------------------

type mockColumnRepo struct {
	createFunc         func(ctx context.Context, c *domain.BoardColumn) error
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*domain.BoardColumn, error)
	listByBoardFunc    func(ctx context.Context, boardID uuid.UUID) ([]*domain.BoardColumn, error)
	findDefaultForFunc func(ctx context.Context, boardID uuid.UUID, location domain.ColumnLocation) (*domain.BoardColumn, error)
}

func (m *mockColumnRepo) Create(ctx context.Context, c *domain.BoardColumn) error {
	return m.createFunc(ctx, c)
}

func (m *mockColumnRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.BoardColumn, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockColumnRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.BoardColumn, error) {
	return m.listByBoardFunc(ctx, boardID)
}

func (m *mockColumnRepo) FindDefaultFor(ctx context.Context, boardID uuid.UUID, location domain.ColumnLocation) (*domain.BoardColumn, error) {
	return m.findDefaultForFunc(ctx, boardID, location)
}

// ---------------------------------------------------------------------------
// Mock CardRepository
// ---------------------------------------------------------------------------

type mockCardRepo struct {
	createFunc                       func(ctx context.Context, c *domain.Card) error
	getByIDFunc                      func(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	getBySequenceFunc                func(ctx context.Context, boardShortName string, sequence int) (*domain.Card, error)
	listByColumnFunc                 func(ctx context.Context, columnID uuid.UUID) ([]*domain.Card, error)
	listByBoardLocationPaginatedFunc func(ctx context.Context, boardID uuid.UUID, location domain.ColumnLocation, page, limit int) ([]*domain.Card, error)
	renameFunc                       func(ctx context.Context, id uuid.UUID, name string) error
	moveToColumnFunc                 func(ctx context.Context, id, columnID uuid.UUID, order int64) error
	columnOrdersFunc                 func(ctx context.Context, columnID uuid.UUID) ([]domain.CardOrder, error)
	applyOrdersFunc                  func(ctx context.Context, columnID uuid.UUID, orders map[uuid.UUID]int64) error
}

func (m *mockCardRepo) Create(ctx context.Context, c *domain.Card) error {
	return m.createFunc(ctx, c)
}

func (m *mockCardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockCardRepo) GetBySequence(ctx context.Context, boardShortName string, sequence int) (*domain.Card, error) {
	return m.getBySequenceFunc(ctx, boardShortName, sequence)
}

func (m *mockCardRepo) ListByColumn(ctx context.Context, columnID uuid.UUID) ([]*domain.Card, error) {
	return m.listByColumnFunc(ctx, columnID)
}

func (m *mockCardRepo) ListByBoardLocationPaginated(ctx context.Context, boardID uuid.UUID, location domain.ColumnLocation, page, limit int) ([]*domain.Card, error) {
	return m.listByBoardLocationPaginatedFunc(ctx, boardID, location, page, limit)
}

func (m *mockCardRepo) Rename(ctx context.Context, id uuid.UUID, name string) error {
	return m.renameFunc(ctx, id, name)
}

func (m *mockCardRepo) MoveToColumn(ctx context.Context, id, columnID uuid.UUID, order int64) error {
	return m.moveToColumnFunc(ctx, id, columnID, order)
}

func (m *mockCardRepo) ColumnOrders(ctx context.Context, columnID uuid.UUID) ([]domain.CardOrder, error) {
	return m.columnOrdersFunc(ctx, columnID)
}

func (m *mockCardRepo) ApplyOrders(ctx context.Context, columnID uuid.UUID, orders map[uuid.UUID]int64) error {
	return m.applyOrdersFunc(ctx, columnID, orders)
}

// ---------------------------------------------------------------------------
// Mock ActivityRepository
// ---------------------------------------------------------------------------

type mockActivityRepo struct {
	insertFunc     func(ctx context.Context, e *domain.ActivityEntry) error
	listByCardFunc func(ctx context.Context, cardID uuid.UUID) ([]*domain.ActivityEntry, error)
}

func (m *mockActivityRepo) Insert(ctx context.Context, e *domain.ActivityEntry) error {
	return m.insertFunc(ctx, e)
}

func (m *mockActivityRepo) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.ActivityEntry, error) {
	return m.listByCardFunc(ctx, cardID)
}

// ---------------------------------------------------------------------------
// Mock PlacementEngine
// ---------------------------------------------------------------------------

type mockEngine struct {
	createCardFunc        func(ctx context.Context, name string, columnID, userID uuid.UUID) (*domain.Card, error)
	createCardFromTopFunc func(ctx context.Context, name string, columnID, userID uuid.UUID) (*domain.Card, error)
	cloneCardFunc         func(ctx context.Context, cardID, columnID, userID uuid.UUID) (*domain.Card, error)
	moveCardFunc          func(ctx context.Context, cardID, prevColumnID, newColumnID uuid.UUID, newOrder []uuid.UUID, userID uuid.UUID) (*placement.MoveResult, error)
	moveCardsFunc         func(ctx context.Context, cardIDs []uuid.UUID, prevColumnID uuid.UUID, location domain.ColumnLocation, userID uuid.UUID) (*placement.BulkMoveResult, error)
	updateCardOrderFunc   func(ctx context.Context, columnID uuid.UUID, cardIDs []uuid.UUID) error
	renameCardFunc        func(ctx context.Context, cardID uuid.UUID, name string, userID uuid.UUID) (*domain.Card, error)
	createBoardFunc       func(ctx context.Context, projectID uuid.UUID, name, shortName string, columns []placement.ColumnSpec) (*domain.Board, error)
}

func (m *mockEngine) CreateCard(ctx context.Context, name string, columnID, userID uuid.UUID) (*domain.Card, error) {
	return m.createCardFunc(ctx, name, columnID, userID)
}

func (m *mockEngine) CreateCardFromTop(ctx context.Context, name string, columnID, userID uuid.UUID) (*domain.Card, error) {
	return m.createCardFromTopFunc(ctx, name, columnID, userID)
}

func (m *mockEngine) CloneCard(ctx context.Context, cardID, columnID, userID uuid.UUID) (*domain.Card, error) {
	return m.cloneCardFunc(ctx, cardID, columnID, userID)
}

func (m *mockEngine) MoveCardToColumnAndReorder(ctx context.Context, cardID, prevColumnID, newColumnID uuid.UUID, newOrder []uuid.UUID, userID uuid.UUID) (*placement.MoveResult, error) {
	return m.moveCardFunc(ctx, cardID, prevColumnID, newColumnID, newOrder, userID)
}

func (m *mockEngine) MoveCardsToLocation(ctx context.Context, cardIDs []uuid.UUID, prevColumnID uuid.UUID, location domain.ColumnLocation, userID uuid.UUID) (*placement.BulkMoveResult, error) {
	return m.moveCardsFunc(ctx, cardIDs, prevColumnID, location, userID)
}

func (m *mockEngine) UpdateCardOrder(ctx context.Context, columnID uuid.UUID, cardIDs []uuid.UUID) error {
	return m.updateCardOrderFunc(ctx, columnID, cardIDs)
}

func (m *mockEngine) RenameCard(ctx context.Context, cardID uuid.UUID, name string, userID uuid.UUID) (*domain.Card, error) {
	return m.renameCardFunc(ctx, cardID, name, userID)
}

func (m *mockEngine) CreateBoard(ctx context.Context, projectID uuid.UUID, name, shortName string, columns []placement.ColumnSpec) (*domain.Board, error) {
	return m.createBoardFunc(ctx, projectID, name, shortName, columns)
}

// ---------------------------------------------------------------------------
// Recording EventSink
// ---------------------------------------------------------------------------

type emission struct {
	kind     string
	project  string
	board    string
	columnID uuid.UUID
	cardID   uuid.UUID
	cardIDs  []uuid.UUID
	location domain.ColumnLocation
}

type recordingSink struct {
	mu        sync.Mutex
	emissions []emission
}

func (s *recordingSink) record(e emission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emissions = append(s.emissions, e)
}

func (s *recordingSink) all() []emission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]emission(nil), s.emissions...)
}

func (s *recordingSink) count(kind string) int {
	n := 0
	for _, e := range s.all() {
		if e.kind == kind {
			n++
		}
	}
	return n
}

func (s *recordingSink) EmitCreateCard(project, board string, columnID, cardID uuid.UUID) {
	s.record(emission{kind: "CREATE_CARD", project: project, board: board, columnID: columnID, cardID: cardID})
}

func (s *recordingSink) EmitUpdateCard(project, board string, columnID, cardID uuid.UUID) {
	s.record(emission{kind: "UPDATE_CARD", project: project, board: board, columnID: columnID, cardID: cardID})
}

func (s *recordingSink) EmitUpdateCardPosition(board string, columnID uuid.UUID) {
	s.record(emission{kind: "UPDATE_CARD_POSITION", board: board, columnID: columnID})
}

func (s *recordingSink) EmitCardHasMoved(project, board string, cardIDs []uuid.UUID) {
	s.record(emission{kind: "CARD_MOVED", project: project, board: board, cardIDs: cardIDs})
}

func (s *recordingSink) EmitMoveCardOutsideOfBoard(board string, location domain.ColumnLocation) {
	s.record(emission{kind: "MOVE_CARD_OUTSIDE_BOARD", board: board, location: location})
}

func (s *recordingSink) EmitMoveCardFromOutsideOfBoard(board string, location domain.ColumnLocation) {
	s.record(emission{kind: "MOVE_CARD_FROM_OUTSIDE_BOARD", board: board, location: location})
}

func (s *recordingSink) EmitCreateProject(project string) {
	s.record(emission{kind: "CREATE_PROJECT", project: project})
}

func (s *recordingSink) EmitUpdateProject(project string) {
	s.record(emission{kind: "UPDATE_PROJECT", project: project})
}

func (s *recordingSink) EmitCreateBoard(project, board string) {
	s.record(emission{kind: "CREATE_BOARD", project: project, board: board})
}

func (s *recordingSink) EmitUpdateBoard(project, board string) {
	s.record(emission{kind: "UPDATE_BOARD", project: project, board: board})
}
