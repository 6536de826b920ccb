package swap

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/rewear-app/rewear-api/internal/apperr"
	"github.com/rewear-app/rewear-api/internal/models"
)

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	return NewService(store), store
}

func itemStatus(t *testing.T, store *memStore, id uuid.UUID) models.ItemStatus {
	t.Helper()
	item, err := store.GetItem(context.Background(), id)
	if err != nil {
		t.Fatalf("GetItem(%s): %v", id, err)
	}
	return item.Status
}

func userPoints(t *testing.T, store *memStore, id uuid.UUID) int {
	t.Helper()
	user, err := store.GetUser(context.Background(), id)
	if err != nil {
		t.Fatalf("GetUser(%s): %v", id, err)
	}
	return user.Points
}

func TestCreateItemSwap(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(100)
	recipient := store.addUser(100)
	offered := store.addItem(initiator, 50)
	wanted := store.addItem(recipient, 80)

	sw, err := svc.Create(ctx, initiator, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypeItem,
		InitiatorItemID: &offered,
		Message:         "trade?",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if sw.Status != models.SwapPending {
		t.Errorf("status = %q, want pending", sw.Status)
	}
	if sw.RecipientID != recipient {
		t.Errorf("recipient = %s, want %s", sw.RecipientID, recipient)
	}
	if sw.InitiatorItemID == nil || *sw.InitiatorItemID != offered {
		t.Errorf("initiator item not recorded on swap")
	}
	if sw.PointsUsed != 0 {
		t.Errorf("pointsUsed = %d, want 0 for item swap", sw.PointsUsed)
	}
	if got := itemStatus(t, store, wanted); got != models.ItemPending {
		t.Errorf("recipient item status = %q, want pending", got)
	}
	if got := itemStatus(t, store, offered); got != models.ItemPending {
		t.Errorf("initiator item status = %q, want pending", got)
	}
}

func TestCreatePointRedemptionFixesPrice(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(100)
	recipient := store.addUser(100)
	wanted := store.addItem(recipient, 80)

	sw, err := svc.Create(ctx, initiator, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypePoints,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sw.PointsUsed != 80 {
		t.Errorf("pointsUsed = %d, want 80", sw.PointsUsed)
	}
	// Баллы при создании не двигаются
	if got := userPoints(t, store, initiator); got != 100 {
		t.Errorf("initiator points = %d, want 100 before acceptance", got)
	}
}

func TestCreateErrors(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(40)
	recipient := store.addUser(100)
	offered := store.addItem(initiator, 50)
	wanted := store.addItem(recipient, 80)
	ownItem := store.addItem(initiator, 30)

	reserved := store.addItem(recipient, 60)
	store.items[reserved].Status = models.ItemPending

	unapproved := store.addItem(recipient, 60)
	store.items[unapproved].ApprovalStatus = models.ApprovalPending

	foreign := store.addItem(recipient, 20)

	tests := []struct {
		name    string
		params  CreateParams
		wantErr error
	}{
		{
			name:    "recipient item missing",
			params:  CreateParams{RecipientItemID: uuid.New(), SwapType: models.SwapTypePoints},
			wantErr: apperr.ErrNotFound,
		},
		{
			name:    "recipient item reserved",
			params:  CreateParams{RecipientItemID: reserved, SwapType: models.SwapTypePoints},
			wantErr: apperr.ErrInvalidState,
		},
		{
			name:    "recipient item not approved",
			params:  CreateParams{RecipientItemID: unapproved, SwapType: models.SwapTypePoints},
			wantErr: apperr.ErrInvalidState,
		},
		{
			name:    "own item",
			params:  CreateParams{RecipientItemID: ownItem, SwapType: models.SwapTypePoints},
			wantErr: apperr.ErrSelfSwap,
		},
		{
			name:    "item swap without initiator item",
			params:  CreateParams{RecipientItemID: wanted, SwapType: models.SwapTypeItem},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "initiator item owned by someone else",
			params:  CreateParams{RecipientItemID: wanted, SwapType: models.SwapTypeItem, InitiatorItemID: &foreign},
			wantErr: apperr.ErrForbidden,
		},
		{
			name:    "insufficient points for redemption",
			params:  CreateParams{RecipientItemID: wanted, SwapType: models.SwapTypePoints},
			wantErr: apperr.ErrInsufficientPoints,
		},
		{
			name:    "unknown swap type",
			params:  CreateParams{RecipientItemID: wanted, SwapType: "barter"},
			wantErr: apperr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, initiator, tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Неудачные попытки не должны трогать вещи
	if got := itemStatus(t, store, wanted); got != models.ItemAvailable {
		t.Errorf("wanted item status = %q after failed creates, want available", got)
	}
	if got := itemStatus(t, store, offered); got != models.ItemAvailable {
		t.Errorf("offered item status = %q after failed creates, want available", got)
	}
}

func TestAcceptPointRedemptionTransfersPoints(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(100)
	recipient := store.addUser(100)
	wanted := store.addItem(recipient, 80)

	sw, err := svc.Create(ctx, initiator, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypePoints,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sw, err = svc.Respond(ctx, sw.ID, recipient, models.SwapAccepted, "")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if sw.Status != models.SwapAccepted {
		t.Errorf("status = %q, want accepted", sw.Status)
	}
	if got := userPoints(t, store, initiator); got != 20 {
		t.Errorf("initiator points = %d, want 20", got)
	}
	if got := userPoints(t, store, recipient); got != 180 {
		t.Errorf("recipient points = %d, want 180", got)
	}
	// Сумма балансов инвариантна
	if total := userPoints(t, store, initiator) + userPoints(t, store, recipient); total != 200 {
		t.Errorf("total points = %d, want 200", total)
	}
	if got := itemStatus(t, store, wanted); got != models.ItemSwapped {
		t.Errorf("item status = %q, want swapped", got)
	}
}

func TestAcceptRollsBackOnFailedTransfer(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(100)
	recipient := store.addUser(100)
	wanted := store.addItem(recipient, 80)

	sw, err := svc.Create(ctx, initiator, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypePoints,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Баланс инициатора просел между созданием и принятием
	store.users[initiator].Points = 10

	_, err = svc.Respond(ctx, sw.ID, recipient, models.SwapAccepted, "")
	if !errors.Is(err, apperr.ErrInsufficientPoints) {
		t.Fatalf("Respond() error = %v, want ErrInsufficientPoints", err)
	}

	// Переход откатился целиком: обмен всё ещё pending, резерв на месте
	got, err := store.GetSwap(ctx, sw.ID)
	if err != nil {
		t.Fatalf("GetSwap: %v", err)
	}
	if got.Status != models.SwapPending {
		t.Errorf("swap status = %q after rollback, want pending", got.Status)
	}
	if st := itemStatus(t, store, wanted); st != models.ItemPending {
		t.Errorf("item status = %q after rollback, want pending", st)
	}
	if pts := userPoints(t, store, recipient); pts != 100 {
		t.Errorf("recipient points = %d after rollback, want 100", pts)
	}
}

func TestRejectReleasesItemsWithoutTransfer(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(100)
	recipient := store.addUser(100)
	wanted := store.addItem(recipient, 80)

	sw, err := svc.Create(ctx, initiator, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypePoints,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sw, err = svc.Respond(ctx, sw.ID, recipient, models.SwapRejected, "no thanks")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if sw.Status != models.SwapRejected {
		t.Errorf("status = %q, want rejected", sw.Status)
	}
	if got := itemStatus(t, store, wanted); got != models.ItemAvailable {
		t.Errorf("item status = %q, want available", got)
	}
	// Перевод баллов не происходил
	if got := userPoints(t, store, initiator); got != 100 {
		t.Errorf("initiator points = %d, want 100", got)
	}
	if got := userPoints(t, store, recipient); got != 100 {
		t.Errorf("recipient points = %d, want 100", got)
	}
}

func TestRespondErrors(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(100)
	recipient := store.addUser(100)
	outsider := store.addUser(100)
	offered := store.addItem(initiator, 50)
	wanted := store.addItem(recipient, 80)

	sw, err := svc.Create(ctx, initiator, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypeItem,
		InitiatorItemID: &offered,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Respond(ctx, sw.ID, recipient, models.SwapCompleted, ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad decision: error = %v, want ErrValidation", err)
	}
	if _, err := svc.Respond(ctx, sw.ID, outsider, models.SwapAccepted, ""); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("outsider respond: error = %v, want ErrForbidden", err)
	}
	if _, err := svc.Respond(ctx, sw.ID, initiator, models.SwapAccepted, ""); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("initiator respond: error = %v, want ErrForbidden", err)
	}
	if _, err := svc.Respond(ctx, uuid.New(), recipient, models.SwapAccepted, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing swap: error = %v, want ErrNotFound", err)
	}

	if _, err := svc.Respond(ctx, sw.ID, recipient, models.SwapAccepted, ""); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	// Повторный ответ по уже принятому обмену
	if _, err := svc.Respond(ctx, sw.ID, recipient, models.SwapRejected, ""); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("second respond: error = %v, want ErrInvalidState", err)
	}
}

func TestItemSwapAcceptThenComplete(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(100)
	recipient := store.addUser(100)
	offered := store.addItem(initiator, 50)
	wanted := store.addItem(recipient, 80)

	sw, err := svc.Create(ctx, initiator, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypeItem,
		InitiatorItemID: &offered,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sw, err = svc.Respond(ctx, sw.ID, recipient, models.SwapAccepted, "")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	// Принятие закрепляет вещи, но обмен ещё не завершён
	if sw.Status != models.SwapAccepted {
		t.Fatalf("status = %q, want accepted", sw.Status)
	}
	if got := itemStatus(t, store, offered); got != models.ItemSwapped {
		t.Errorf("offered item status = %q, want swapped", got)
	}
	if got := itemStatus(t, store, wanted); got != models.ItemSwapped {
		t.Errorf("wanted item status = %q, want swapped", got)
	}

	sw, err = svc.Complete(ctx, sw.ID, initiator)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if sw.Status != models.SwapCompleted {
		t.Errorf("status = %q, want completed", sw.Status)
	}
	if sw.CompletedAt == nil {
		t.Errorf("completedAt not stamped")
	}

	// Завершение терминально
	if _, err := svc.Complete(ctx, sw.ID, recipient); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("second complete: error = %v, want ErrInvalidState", err)
	}
}

func TestCompleteErrors(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(100)
	recipient := store.addUser(100)
	outsider := store.addUser(100)
	wanted := store.addItem(recipient, 80)

	sw, err := svc.Create(ctx, initiator, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypePoints,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Завершить можно только принятый обмен
	if _, err := svc.Complete(ctx, sw.ID, initiator); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("complete pending: error = %v, want ErrInvalidState", err)
	}

	if _, err := svc.Respond(ctx, sw.ID, recipient, models.SwapAccepted, ""); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if _, err := svc.Complete(ctx, sw.ID, outsider); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("outsider complete: error = %v, want ErrForbidden", err)
	}
}

func TestCancelReleasesItems(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(100)
	recipient := store.addUser(100)
	offered := store.addItem(initiator, 50)
	wanted := store.addItem(recipient, 80)

	sw, err := svc.Create(ctx, initiator, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypeItem,
		InitiatorItemID: &offered,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Cancel(ctx, sw.ID, recipient); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("recipient cancel: error = %v, want ErrForbidden", err)
	}

	sw, err = svc.Cancel(ctx, sw.ID, initiator)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if sw.Status != models.SwapCancelled {
		t.Errorf("status = %q, want cancelled", sw.Status)
	}
	if got := itemStatus(t, store, offered); got != models.ItemAvailable {
		t.Errorf("offered item status = %q, want available", got)
	}
	if got := itemStatus(t, store, wanted); got != models.ItemAvailable {
		t.Errorf("wanted item status = %q, want available", got)
	}

	if _, err := svc.Cancel(ctx, sw.ID, initiator); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("second cancel: error = %v, want ErrInvalidState", err)
	}
}

func TestCancelAfterAcceptance(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(100)
	recipient := store.addUser(100)
	wanted := store.addItem(recipient, 80)

	sw, err := svc.Create(ctx, initiator, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypePoints,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Respond(ctx, sw.ID, recipient, models.SwapAccepted, ""); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	// Принятый обмен инициатор в одностороннем порядке не отменяет
	if _, err := svc.Cancel(ctx, sw.ID, initiator); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("cancel accepted: error = %v, want ErrInvalidState", err)
	}
}

func TestRate(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(100)
	recipient := store.addUser(100)
	wanted := store.addItem(recipient, 80)

	sw, err := svc.Create(ctx, initiator, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypePoints,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Оценивать можно только завершённый обмен
	if _, err := svc.Rate(ctx, sw.ID, initiator, 4, ""); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("rate pending: error = %v, want ErrInvalidState", err)
	}

	if _, err := svc.Respond(ctx, sw.ID, recipient, models.SwapAccepted, ""); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if _, err := svc.Complete(ctx, sw.ID, recipient); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	outsider := store.addUser(100)
	if _, err := svc.Rate(ctx, sw.ID, outsider, 4, ""); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("outsider rate: error = %v, want ErrForbidden", err)
	}
	if _, err := svc.Rate(ctx, sw.ID, initiator, 6, ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("rating out of range: error = %v, want ErrValidation", err)
	}

	// Инициатор оценивает получателя: первый рейтинг вытесняет стартовые 5.0
	sw, err = svc.Rate(ctx, sw.ID, initiator, 3, "ok")
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if sw.InitiatorRating == nil || sw.InitiatorRating.Rating != 3 {
		t.Errorf("initiator rating slot not recorded")
	}
	rec, _ := store.GetUser(ctx, recipient)
	if rec.Rating != 3.0 || rec.TotalRatings != 1 {
		t.Errorf("recipient rating = %.2f/%d, want 3.00/1", rec.Rating, rec.TotalRatings)
	}

	// Вторая оценка той же стороной — конфликт
	if _, err := svc.Rate(ctx, sw.ID, initiator, 5, ""); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("double rate: error = %v, want ErrConflict", err)
	}

	// Ответная оценка получателя пишется в свой слот
	sw, err = svc.Rate(ctx, sw.ID, recipient, 5, "great")
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if sw.RecipientRating == nil || sw.RecipientRating.Rating != 5 {
		t.Errorf("recipient rating slot not recorded")
	}
	ini, _ := store.GetUser(ctx, initiator)
	if ini.Rating != 5.0 || ini.TotalRatings != 1 {
		t.Errorf("initiator rating = %.2f/%d, want 5.00/1", ini.Rating, ini.TotalRatings)
	}
}

func TestPendingItemReferencedByOneOpenSwap(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(100)
	second := store.addUser(100)
	recipient := store.addUser(100)
	wanted := store.addItem(recipient, 80)

	sw, err := svc.Create(ctx, initiator, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypePoints,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Зарезервированную вещь второй раз не предложить
	if _, err := svc.Create(ctx, second, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypePoints,
	}); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("second create on reserved item: error = %v, want ErrInvalidState", err)
	}

	// После отмены вещь снова доступна для нового обмена
	if _, err := svc.Cancel(ctx, sw.ID, initiator); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := svc.Create(ctx, second, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypePoints,
	}); err != nil {
		t.Errorf("create after cancel: %v", err)
	}
}

func TestConcurrentRespondAndCancel(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(100)
	recipient := store.addUser(100)
	wanted := store.addItem(recipient, 80)

	sw, err := svc.Create(ctx, initiator, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypePoints,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.Respond(ctx, sw.ID, recipient, models.SwapAccepted, "")
		results <- err
	}()
	go func() {
		defer wg.Done()
		_, err := svc.Cancel(ctx, sw.ID, initiator)
		results <- err
	}()
	wg.Wait()
	close(results)

	// Побеждает ровно один переход, проигравший получает ErrInvalidState
	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, apperr.ErrInvalidState):
			losses++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Errorf("wins = %d, losses = %d, want exactly one of each", wins, losses)
	}

	got, err := store.GetSwap(ctx, sw.ID)
	if err != nil {
		t.Fatalf("GetSwap: %v", err)
	}
	if got.Status != models.SwapAccepted && got.Status != models.SwapCancelled {
		t.Errorf("swap status = %q, want accepted or cancelled", got.Status)
	}
}

func TestGetRequiresParty(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	initiator := store.addUser(100)
	recipient := store.addUser(100)
	outsider := store.addUser(100)
	wanted := store.addItem(recipient, 80)

	sw, err := svc.Create(ctx, initiator, CreateParams{
		RecipientItemID: wanted,
		SwapType:        models.SwapTypePoints,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(ctx, sw.ID, initiator); err != nil {
		t.Errorf("initiator get: %v", err)
	}
	if _, err := svc.Get(ctx, sw.ID, outsider); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("outsider get: error = %v, want ErrForbidden", err)
	}
}
