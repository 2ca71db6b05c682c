package main

import "syscall"

// diskFreeRatio reports the fraction of free space at path's filesystem,
// satisfying health.DiskChecker. Grounded on lnd's own disk-space health
// check, which shells out to syscall.Statfs on Linux deployments.
func diskFreeRatio(path string) (float64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	if stat.Blocks == 0 {
		return 0, nil
	}
	return float64(stat.Bfree) / float64(stat.Blocks), nil
}
