package engine

import (
	"templecode/dialect"
	"templecode/turtle"
)

// newHandlerTable maps every tag to exactly one handler
func newHandlerTable() [dialect.NumTags]handlerFunc {
	return [dialect.NumTags]handlerFunc{
		dialect.TagText:          handleText,
		dialect.TagAccept:        handleAccept,
		dialect.TagMatch:         handleMatch,
		dialect.TagJumpIfMatch:   handleJumpIfMatch,
		dialect.TagJumpIfNoMatch: handleJumpIfNoMatch,
		dialect.TagCompute:       handleCompute,
		dialect.TagShowVariable:  handleShowVariable,
		dialect.TagJump:          handleJump,
		dialect.TagLabel:         handleRemark,
		dialect.TagUnknownPrefix: handleUnknownPrefix,

		dialect.TagEnd:       handleEnd,
		dialect.TagRemark:    handleRemark,
		dialect.TagPlainText: handlePlainText,

		dialect.TagPrint:  handlePrint,
		dialect.TagLet:    handleLet,
		dialect.TagInput:  handleInput,
		dialect.TagIf:     handleIf,
		dialect.TagGoto:   handleGoto,
		dialect.TagFor:    handleFor,
		dialect.TagNext:   handleNext,
		dialect.TagGosub:  handleGosub,
		dialect.TagReturn: handleReturn,
		dialect.TagCls:    handleCls,
		dialect.TagScreen: handleScreen,
		dialect.TagLocate: handleLocate,

		dialect.TagForward:       turtleUnary((*turtle.State).Forward),
		dialect.TagBack:          turtleUnary((*turtle.State).Back),
		dialect.TagLeft:          turtleUnary((*turtle.State).Left),
		dialect.TagRight:         turtleUnary((*turtle.State).Right),
		dialect.TagPenUp:         turtleNullary((*turtle.State).PenUp),
		dialect.TagPenDown:       turtleNullary((*turtle.State).PenDown),
		dialect.TagSetXY:         handleSetXY,
		dialect.TagSetX:          turtleUnary((*turtle.State).SetX),
		dialect.TagSetY:          turtleUnary((*turtle.State).SetY),
		dialect.TagSetHeading:    turtleUnary((*turtle.State).SetHeading),
		dialect.TagHome:          turtleNullary((*turtle.State).Home),
		dialect.TagHideTurtle:    turtleNullary((*turtle.State).Hide),
		dialect.TagShowTurtle:    turtleNullary((*turtle.State).Show),
		dialect.TagSetPenColor:   handleSetPenColor,
		dialect.TagSetBgColor:    handleSetBgColor,
		dialect.TagSetPenWidth:   turtleUnary((*turtle.State).SetPenWidth),
		dialect.TagClearScreen:   handleClearScreen,
		dialect.TagRepeat:        handleRepeat,
		dialect.TagBlockEnd:      handleBlockEnd,
		dialect.TagProcDef:       handleProcDef,
		dialect.TagProcEnd:       handleProcEnd,
		dialect.TagStop:          handleStop,
		dialect.TagCall:          handleCall,
		dialect.TagUnknownTurtle: handleUnknownTurtle,
	}
}
