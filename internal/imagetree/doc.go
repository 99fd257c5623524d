// Package imagetree lays out the ISO staging tree consumed by the downstream
// image tool:
//
//	<root>/
//	└── iso/
//	    └── boot/
//	        ├── kernel.elf
//	        └── grub/
//	            ├── stage2_eltorito
//	            └── menu.lst
//
// Directories are created when missing and never removed. The kernel is
// moved out of the source directory; the boot-loader support files are copied.
package imagetree
