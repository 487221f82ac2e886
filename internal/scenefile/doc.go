// Package scenefile loads demo scenes and task settings from Lua files.
//
// A scene file is a Lua chunk that fills the global paint table:
//
//	paint.config = {
//	    backend = "cpu",
//	    workers = 4,
//	    tile_size = 128,
//	}
//
//	paint.scene = {
//	    w = 800, h = 600,
//	    layer = { id = 1, background = "#ffffff" },
//	    items = {
//	        { type = "rect", x = 10, y = 10, w = 100, h = 50, color = "#3366cc" },
//	        { type = "text", x = 10, y = 100, text = "hello", size = 24 },
//	    },
//	    children = {
//	        { x = 200, y = 200, w = 300, h = 200, z = 1, opacity = 0.5,
//	          items = { { type = "border", x = 0, y = 0, w = 300, h = 200, width = 4 } } },
//	    },
//	}
//
// Each node of paint.scene becomes a displaylist.StackingContext. Chunks
// run under CPU and memory limits so a broken file cannot hang the demo.
package scenefile
