package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuutuut/tuutuut-api/internal/models"
)

func newLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := OpenLocal(filepath.Join(t.TempDir(), "guest.db"))
	require.NoError(t, err)
	return store
}

func TestLocalStore_CarCRUD(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	car, err := store.InsertCar(ctx, models.Car{
		OwnerID:      models.GuestOwnerID,
		Make:         "Volkswagen",
		Model:        "Golf",
		Year:         2016,
		Mileage:      118000,
		FuelType:     "Benzine",
		LicensePlate: "AB-123-C",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, car.ID)

	found, err := store.FindCarByID(ctx, models.GuestOwnerID, car.ID)
	require.NoError(t, err)
	assert.Equal(t, "Golf", found.Model)
	assert.Equal(t, 118000, found.Mileage)

	found.Mileage = 119500
	require.NoError(t, store.UpdateCar(ctx, models.GuestOwnerID, *found))

	cars, err := store.FindCars(ctx, models.GuestOwnerID)
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, 119500, cars[0].Mileage)

	require.NoError(t, store.DeleteCar(ctx, models.GuestOwnerID, car.ID))
	_, err = store.FindCarByID(ctx, models.GuestOwnerID, car.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_OwnerScoping(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	car, err := store.InsertCar(ctx, models.Car{OwnerID: "alice", Make: "Fiat", Model: "Panda"})
	require.NoError(t, err)

	_, err = store.FindCarByID(ctx, "bob", car.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteCar(ctx, "bob", car.ID), ErrNotFound)

	cars, err := store.FindCars(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, cars)
}

func TestLocalStore_ReplaceAdvice(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	due := 120000
	interval := 15000
	car, err := store.InsertCar(ctx, models.Car{OwnerID: models.GuestOwnerID, Make: "Opel", Model: "Astra"})
	require.NoError(t, err)

	at := time.Now()
	advice := []models.MaintenanceSuggestion{
		{Task: "Olie Verversen", Urgency: models.UrgencyMedium, Reason: "laatste beurt 14.000 km geleden", DueMileage: &due, IntervalKm: &interval},
	}
	require.NoError(t, store.ReplaceAdvice(ctx, models.GuestOwnerID, car.ID, advice, at))

	found, err := store.FindCarByID(ctx, models.GuestOwnerID, car.ID)
	require.NoError(t, err)
	require.Len(t, found.LastAdvice, 1)
	assert.Equal(t, "Olie Verversen", found.LastAdvice[0].Task)
	require.NotNil(t, found.LastAdvice[0].DueMileage)
	assert.Equal(t, 120000, *found.LastAdvice[0].DueMileage)
	require.NotNil(t, found.LastAdviceDate)

	// Replace is wholesale, never a merge.
	require.NoError(t, store.ReplaceAdvice(ctx, models.GuestOwnerID, car.ID, []models.MaintenanceSuggestion{}, time.Now()))
	found, err = store.FindCarByID(ctx, models.GuestOwnerID, car.ID)
	require.NoError(t, err)
	assert.Empty(t, found.LastAdvice)

	assert.ErrorIs(t, store.ReplaceAdvice(ctx, models.GuestOwnerID, "missing", advice, at), ErrNotFound)
}

func TestLocalStore_RecordsByCar(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	carA, err := store.InsertCar(ctx, models.Car{OwnerID: models.GuestOwnerID, Make: "Toyota", Model: "Aygo"})
	require.NoError(t, err)
	carB, err := store.InsertCar(ctx, models.Car{OwnerID: models.GuestOwnerID, Make: "Volvo", Model: "V60"})
	require.NoError(t, err)

	for i, carID := range []string{carA.ID, carA.ID, carB.ID} {
		_, err := store.InsertRecord(ctx, models.MaintenanceRecord{
			OwnerID:          models.GuestOwnerID,
			CarID:            carID,
			Date:             "2025-01-15",
			Title:            "Beurt",
			Cost:             float64(100 * (i + 1)),
			MileageAtService: 50000,
		})
		require.NoError(t, err)
	}

	records, err := store.FindRecordsByCar(ctx, models.GuestOwnerID, carA.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	all, err := store.FindRecords(ctx, models.GuestOwnerID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLocalStore_TaskCRUD(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	task, err := store.InsertTask(ctx, models.DIYTask{
		OwnerID:  models.GuestOwnerID,
		CarID:    "car-1",
		Title:    "Ruitenwissers vervangen",
		Status:   models.TaskStatusTodo,
		Priority: models.TaskPriorityNormal,
	})
	require.NoError(t, err)

	task.Status = models.TaskStatusDone
	require.NoError(t, store.UpdateTask(ctx, models.GuestOwnerID, *task))

	tasks, err := store.FindTasks(ctx, models.GuestOwnerID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskStatusDone, tasks[0].Status)

	require.NoError(t, store.DeleteTask(ctx, models.GuestOwnerID, task.ID))
	_, err = store.FindTaskByID(ctx, models.GuestOwnerID, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
