// Package storage writes enhanced photos into the output directory.
//
// Every file is written to a temporary name first and renamed into place,
// so an interrupted or failed save never leaves a partial photo behind.
// The Manager also decides the final file name when two photos of the same
// run recognize to the same label:
//
//	suffix     second and later copies become label_2.jpg, label_3.jpg, ...
//	overwrite  the last photo written under a label wins
//
// Usage:
//
//	manager, err := storage.NewManager("douban_english_ocr", config.OnDuplicateSuffix)
//	if err != nil {
//	    return err
//	}
//	path, err := manager.SaveJPEG("Hello World_Test", enhanced)
package storage
