package renderer

import (
	"sync"

	"github.com/df07/go-irradiance-tracer/pkg/irradiance"
)

// TileTask represents a tile rendering task for the worker pool
type TileTask struct {
	Tile   *Tile
	Pass   int // CachePass or FinalPass
	TaskID int // Index of the tile in its pass, used for deterministic ordering
}

// TileResult contains the result from rendering a tile
type TileResult struct {
	TaskID int
	Stats  TileStats
	Cache  *irradiance.Cache // Private cache of a cache pass tile
	Debug  tileDebug
}

// WorkerPool manages parallel tile rendering for one render
type WorkerPool struct {
	taskQueue   chan TileTask
	resultQueue chan TileResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual tile rendering tasks
type Worker struct {
	ID          int
	rc          *RenderContext
	taskQueue   chan TileTask
	resultQueue chan TileResult
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// Queues are buffered for maxTiles tasks so a whole pass can be submitted
// before any result is read.
func NewWorkerPool(rc *RenderContext, numWorkers, maxTiles int) *WorkerPool {
	wp := &WorkerPool{
		taskQueue:   make(chan TileTask, maxTiles),
		resultQueue: make(chan TileResult, maxTiles),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			rc:          rc,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a tile task to the worker pool
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed tile result
func (wp *WorkerPool) GetResult() (TileResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// RunPass submits every tile and waits for all of them. The returned
// results are indexed by task id, independent of completion order.
func (wp *WorkerPool) RunPass(pass int, tiles []*Tile) []TileResult {
	for i, tile := range tiles {
		wp.SubmitTask(TileTask{Tile: tile, Pass: pass, TaskID: i})
	}

	results := make([]TileResult, len(tiles))
	for range tiles {
		result, ok := wp.GetResult()
		if !ok {
			break
		}
		results[result.TaskID] = result
	}
	return results
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		var result TileResult
		switch task.Pass {
		case CachePass:
			result = w.rc.renderCacheTile(task)
		default:
			result = w.rc.renderFinalTile(task)
		}
		w.resultQueue <- result
	}
}
